package repository

import "errors"

var (
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict marks a write that violated a uniqueness constraint.
	ErrConflict = errors.New("entity already exists")
)
