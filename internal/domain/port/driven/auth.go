package driven

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when a token is malformed, expired, signed with
// another key, or of the wrong kind.
var ErrInvalidToken = errors.New("invalid token")

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// TokenIssuer mints and validates bearer tokens.
type TokenIssuer interface {
	IssueAccess(userID string) (string, error)
	ParseAccess(token string) (userID string, err error)
	IssueReset(email string) (string, error)
	ParseReset(token string) (email string, err error)
}

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}
