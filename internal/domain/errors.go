package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks validation failures that the caller can fix
	ErrInvalidInput = errors.New("invalid input")
)
