package storage

import "errors"

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey indicates an empty blob name was provided.
	ErrEmptyKey = errors.New("blob name must not be empty")
	// ErrInvalidKey indicates the blob name contains a path traversal segment.
	ErrInvalidKey = errors.New("blob name contains invalid path segment")
	// ErrInvalidLocator indicates a document locator that does not resolve
	// to a container and blob name.
	ErrInvalidLocator = errors.New("invalid document locator")
)
