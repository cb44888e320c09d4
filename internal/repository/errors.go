package repository

import "errors"

var ErrProfileNotFound = errors.New("profile not found")
