package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable matches any *SourceUnavailableError.
	ErrSourceUnavailable = errors.New("catalog source unavailable")
	// ErrAllSourcesExhausted means every ranked and fallback source failed or
	// returned nothing.
	ErrAllSourcesExhausted = errors.New("all catalog sources exhausted")
	// ErrCancelled means a newer request superseded this one. It is never
	// reported to the user; no visible state may change.
	ErrCancelled = errors.New("superseded by a newer request")
	// ErrDetailNotFound means the primary record could not be resolved.
	ErrDetailNotFound = errors.New("title not found")
)

// SourceUnavailableError reports one failed catalog call.
type SourceUnavailableError struct {
	Endpoint string
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Endpoint, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSourceUnavailable) match.
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}
