package services

import "errors"

var (
	// ErrMemberNotFound is returned when the requesting member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrPostNotFound is returned when a recruit post does not exist.
	ErrPostNotFound = errors.New("recruit post not found")

	// ErrModelUnavailable means no trained embedding snapshot has been
	// published yet. Serving degrades to rule-only scoring; this is a
	// designed fallback, not a failure.
	ErrModelUnavailable = errors.New("factorization model unavailable")

	// ErrStoreUnavailable wraps data-access failures on the serving path.
	// Callers should treat it as retryable; serving fails closed rather
	// than guessing a Phase or candidate set.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicateInteraction is returned when an apply or bookmark for the
	// same (member, post) pair already exists.
	ErrDuplicateInteraction = errors.New("interaction already exists")

	// ErrInvalidTransition is returned for a recruit status change that is
	// not a legal forward transition.
	ErrInvalidTransition = errors.New("invalid recruit status transition")

	// ErrInsufficientData is returned by training when there are too few
	// interactions to fit a model worth publishing.
	ErrInsufficientData = errors.New("insufficient interaction data for training")
)
