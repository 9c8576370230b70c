package summary

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports an unknown style or strategy. Fatal to the
// call, never to the process.
type ConfigurationError struct {
	Style Style
	Valid []Style
}

func (e *ConfigurationError) Error() string {
	valid := make([]string, 0, len(e.Valid))
	for _, s := range e.Valid {
		valid = append(valid, string(s))
	}
	return fmt.Sprintf("unknown summary style %q (valid: %s)", e.Style, strings.Join(valid, ", "))
}

// GenerationError reports that the generation capability failed, timed out,
// or a required section could not be produced. Tagged with the entity title
// so batch callers can log and skip.
type GenerationError struct {
	Entity    string
	Stage     string
	Retryable bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %q at %s: %v", e.Entity, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError reports that the durable store was unreachable or a
// write could not be applied. Always retryable: the pass is idempotent.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistent store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsRetryable reports whether an error is worth retrying on a later pass.
func IsRetryable(err error) bool {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Retryable
	}
	var persistErr *PersistenceError
	return errors.As(err, &persistErr)
}
