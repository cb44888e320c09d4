package service

import "errors"

var (
	// ErrInvalidRequest marks input problems; handlers answer 400.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnparseableResult means the model answered with something that is not the result JSON.
	ErrUnparseableResult = errors.New("analysis result is not valid JSON")
	// ErrStorageDisabled is returned by avatar operations when no bucket is configured.
	ErrStorageDisabled = errors.New("file storage is not configured")
	ErrPageNotFound    = errors.New("page not found")
)
