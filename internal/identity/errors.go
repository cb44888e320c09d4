package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when a token response carries no access token.
	ErrNoSession = errors.New("identity: no session in response")
	// ErrInvalidToken covers access tokens that fail parsing or verification.
	ErrInvalidToken = errors.New("identity: invalid access token")
)

// APIError is a non-2xx answer from the auth API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "identity api error"
	}
	if e.Code == "" {
		return fmt.Sprintf("identity api error: status=%d msg=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("identity api error: status=%d code=%s msg=%s", e.StatusCode, e.Code, e.Message)
}
