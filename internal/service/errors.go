package service

import "errors"

var (
	ErrIDRequired         = errors.New("id is required")
	ErrNotFound           = errors.New("not found")
	ErrReaderNil          = errors.New("reader is nil")
	ErrUnauthorized       = errors.New("caller does not own this resource")
	ErrStorageFailure     = errors.New("storage failure")
	ErrInvalidTemplate    = errors.New("invalid template")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDocumentTooLarge   = errors.New("document too large")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
