package repository

import "errors"

var (
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrStoreUnavailable  = errors.New("document store unavailable")
)
