package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid config")
)

// FetchError is a failure of the initial data load.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching initial data: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ApplyError is a failure applying a preset or an effect config. Op names
// what was being applied.
type ApplyError struct {
	Op  string
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("applying %s: %v", e.Op, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
