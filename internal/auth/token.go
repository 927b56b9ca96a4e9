package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/snake-arena/internal/domain"
)

// TokenIssuer mints and resolves stateless bearer tokens. A token is a
// JWT signed with HMAC-SHA256 carrying the user id in the subject
// claim; possession of a validly signed token is sufficient for
// authentication, and logout is a client-side discard. No expiry is
// set, which also means tokens cannot be individually revoked.
type TokenIssuer struct {
	secret []byte
	issuer string
}

// NewTokenIssuer creates a token issuer. The secret must be shared by
// every instance that should accept each other's tokens.
func NewTokenIssuer(secret, issuer string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Issue produces a signed token bound to the given user id.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		Issuer:   t.issuer,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Resolve returns the user id a token was issued for. Malformed,
// unsigned or badly signed tokens yield ErrUnauthorized; the caller is
// responsible for checking the id still resolves to a live user.
func (t *TokenIssuer) Resolve(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
