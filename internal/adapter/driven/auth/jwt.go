package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenIssuer = (*JWTIssuer)(nil)

const (
	tokenTypeAccess = "access"
	tokenTypeReset  = "reset"
)

// claims is the payload of every token. Subject holds the user id for access
// tokens and the email address for reset tokens.
type claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 tokens with a shared secret.
type JWTIssuer struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewJWTIssuer creates an issuer for the given secret and lifetimes.
func NewJWTIssuer(secret string, accessTTL, resetTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// IssueAccess mints an access token for userID.
func (j *JWTIssuer) IssueAccess(userID string) (string, error) {
	return j.sign(tokenTypeAccess, userID, j.accessTTL)
}

// ParseAccess validates an access token and returns its user id.
func (j *JWTIssuer) ParseAccess(token string) (string, error) {
	return j.parse(token, tokenTypeAccess)
}

// IssueReset mints a password reset token for email.
func (j *JWTIssuer) IssueReset(email string) (string, error) {
	return j.sign(tokenTypeReset, email, j.resetTTL)
}

// ParseReset validates a reset token and returns its email.
func (j *JWTIssuer) ParseReset(token string) (string, error) {
	return j.parse(token, tokenTypeReset)
}

func (j *JWTIssuer) sign(tokenType, subject string, ttl time.Duration) (string, error) {
	now := j.now()
	c := claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (j *JWTIssuer) parse(token, wantType string) (string, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", errors.Join(driven.ErrInvalidToken, err)
	}

	if !parsed.Valid || c.Type != wantType || c.Subject == "" {
		return "", driven.ErrInvalidToken
	}
	return c.Subject, nil
}
