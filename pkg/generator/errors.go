package generator

import (
	"errors"
	"fmt"
)

// Configuration error causes.
var (
	ErrUnknownCurrency    = errors.New("unsupported currency")
	ErrInvalidPatternType = errors.New("pattern type must be prefix or suffix")
	ErrInvalidPriority    = errors.New("priority must be between 1 and 5")
	ErrInvalidTarget      = errors.New("target count must not be negative")
	ErrInvalidPattern     = errors.New("invalid pattern")
)

// ConfigurationError reports an invalid task field. The offending task is
// skipped; a batch continues with the next one.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(field, value string, err error) error {
	return &ConfigurationError{Field: field, Value: value, Err: err}
}

// GenerationError reports a codec failure inside one worker. It retires that
// worker only.
type GenerationError struct {
	WorkerID int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("worker %d: key generation failed: %v", e.WorkerID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed durable write. The task is marked failed.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
