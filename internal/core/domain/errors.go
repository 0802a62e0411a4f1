package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file format or pattern type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIndexNotReady indicates an index was queried before being built
	// or loaded. Always fatal to the calling operation.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrUpstreamUnavailable indicates the generation or embedding
	// backend is unreachable. Callers degrade or propagate but never
	// retry unboundedly.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse indicates generation output was not valid
	// structured data after bounded retries.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrDataIntegrity indicates inconsistent inputs: an embedding
	// dimension mismatch, an empty corpus where one is required, or an
	// unknown pattern type. Surfaced immediately, never coerced.
	ErrDataIntegrity = errors.New("data integrity violation")
)
