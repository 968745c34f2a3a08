package driven

import "time"

// AuthAdapter issues and validates service tokens for the dashboard API.
type AuthAdapter interface {
	// MintServiceToken creates a signed token for the given subject.
	MintServiceToken(subject string, ttl time.Duration) (string, error)

	// ValidateServiceToken verifies a token and returns its subject.
	// Returns domain.ErrTokenExpired or domain.ErrUnauthorized on failure.
	ValidateServiceToken(token string) (subject string, err error)

	// VerifyAPIKey compares a presented key against the stored bcrypt hash.
	// Returns domain.ErrUnauthorized on mismatch.
	VerifyAPIKey(hash, key string) error
}
