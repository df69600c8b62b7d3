package insights

import (
	"errors"
	"fmt"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/models"
)

var (
	// ErrNotConfigured is returned by a Generator that lacks credentials or an endpoint.
	ErrNotConfigured = errors.New("insight generator is not configured")

	// ErrServiceUnavailable means generation cannot run until an operator fixes configuration.
	ErrServiceUnavailable = errors.New("insight service unavailable")

	// ErrGenerationFailed covers transient generation failures, including timeouts.
	ErrGenerationFailed = errors.New("insight generation failed")
)

// InsufficientDataError is returned before the cache is consulted when the user
// has not tracked enough to generate anything useful.
type InsufficientDataError struct {
	Message    string
	DaysNeeded int
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data: " + e.Message
}

// RateLimitedError is returned when a forced refresh arrives before the window
// since the last generation has elapsed.
type RateLimitedError struct {
	Type       models.InsightType
	RetryAfter time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s regeneration rate limited until %s", e.Type, e.RetryAfter.Format(time.RFC3339))
}

// MalformedOutputError means the generator answered but the payload did not fit
// the expected shape. It matches ErrGenerationFailed.
type MalformedOutputError struct {
	Type models.InsightType
	Err  error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed %s output: %v", e.Type, e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrGenerationFailed
}
