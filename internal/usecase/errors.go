package usecase

import (
	"errors"

	"github.com/riskibarqy/geo-stats/internal/domain/match"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrNotFinished    = match.ErrNotFinished
	ErrAlreadyExists  = match.ErrAlreadyExists
	ErrUpstreamFetch  = errors.New("upstream fetch failed")
	ErrStorageFailure = errors.New("storage failure")
)

// IsRetryable reports whether a caller may retry the same ingestion later.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFinished), errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound):
		return false
	default:
		return errors.Is(err, ErrUpstreamFetch) ||
			errors.Is(err, ErrDependencyUnavailable) ||
			errors.Is(err, ErrStorageFailure)
	}
}
