package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record, a candidate card or a
// configured field does not exist. Check with errors.Is.
var ErrNotFound = errors.New("not found")

// StoreError wraps a failure of the local database.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// RemoteError indicates the card service was unreachable or answered
// with a populated error field.
type RemoteError struct {
	Action  string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("card service %s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("card service %s: %s", e.Action, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// SerializationError indicates a stored value could not be decoded.
type SerializationError struct {
	Column string
	Value  any
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("malformed %s value %v: %v", e.Column, e.Value, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// ConfigError indicates a deck mapping is absent or the configuration is invalid.
type ConfigError struct {
	Deck string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Deck != "" {
		return fmt.Sprintf("config: deck %q: %v", e.Deck, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
