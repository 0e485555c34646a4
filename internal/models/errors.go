package models

import "errors"

// Error taxonomy shared by services, repositories and the API layer.
// Handlers match these with errors.Is and map them to HTTP statuses.
var (
	// ErrNotOwner: a mutating call was made by someone other than the file
	// owner (or link creator). Distinct from an access-time denial.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrNotFound: unknown file, user, grant or token.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyRevoked: the share link was already revoked.
	ErrAlreadyRevoked = errors.New("share link already revoked")

	// ErrInvalidTTL: a negative time-to-live was supplied.
	ErrInvalidTTL = errors.New("ttl must not be negative")

	// ErrTokenSpaceExhausted: token generation collided repeatedly, which
	// points at a broken random source. Retryable by the caller.
	ErrTokenSpaceExhausted = errors.New("token generation exhausted retries")

	// ErrUnavailable: the backing store could not be reached. Never
	// conflated with ErrNotFound.
	ErrUnavailable = errors.New("storage unavailable")
)
