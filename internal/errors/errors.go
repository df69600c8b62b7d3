package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/insights"
	"github.com/aandrew-el/habit-tracker-sub000/internal/logger"
	"github.com/aandrew-el/habit-tracker-sub000/internal/storage"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %s", UserMessage(err))
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// UserMessage renders err as something a user can act on. Insight failures
// are translated into their user-facing wording; anything else is returned
// unchanged.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var insufficient *insights.InsufficientDataError
	if stderrors.As(err, &insufficient) {
		return insufficient.Message
	}

	var limited *insights.RateLimitedError
	if stderrors.As(err, &limited) {
		return fmt.Sprintf("%s was refreshed recently; try again after %s",
			limited.Type, limited.RetryAfter.Local().Format(time.RFC3339))
	}

	switch {
	case stderrors.Is(err, insights.ErrServiceUnavailable):
		return "insight service unavailable; set an API key with 'habitkit keyring set'"
	case stderrors.Is(err, insights.ErrGenerationFailed):
		return "insights unavailable, try again"
	case stderrors.Is(err, storage.ErrScope):
		return "no user selected"
	}

	return err.Error()
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
