package domain

import "errors"

var (
	// ErrNotFound is returned when a notification cannot be found in the store
	ErrNotFound = errors.New("notification not found")
)
