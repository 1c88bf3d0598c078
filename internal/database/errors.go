package database

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ReadError marks a failed listing fetch. Callers present the list as empty.
type ReadError struct {
	Collection string
	Err        error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Collection, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func readErr(collection string, err error) error {
	if err == nil {
		return nil
	}
	return &ReadError{Collection: collection, Err: err}
}
