package storage

import (
	"errors"
	"fmt"
)

// ErrTargetUnavailable reports that a migration target provider failed its
// availability probe. The manager wraps it in an [*OpError].
var ErrTargetUnavailable = errors.New("target storage is not available")

// ConfigError is a fatal configuration failure: an invalid or incomplete
// [Config] detected before provider construction. It is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid storage config: %s: %s", e.Field, e.Reason)
}

// OpError wraps a transport or filesystem failure with the provider kind and
// the logical operation that failed.
type OpError struct {
	Provider Kind
	Op       string
	Err      error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// opErr is the constructor used by providers and the manager.
func opErr(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Provider: kind, Op: op, Err: err}
}

// WrapOp wraps err as an [*OpError] for the given provider kind and
// operation. A nil err stays nil.
func WrapOp(kind Kind, op string, err error) error { return opErr(kind, op, err) }
