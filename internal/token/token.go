// Package token implements the signed bearer token handed out after a
// successful login. Tokens are HS256 JWTs carrying the role and application
// identifiers; validation distinguishes expiry from signature tampering so
// callers can redirect or reject accordingly.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned when a token's expiry is in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalidSignature is returned when a token's signature does not
	// verify against the configured secret.
	ErrTokenInvalidSignature = errors.New("token signature is invalid")

	// ErrTokenMalformed is returned for tokens that cannot be parsed at all.
	ErrTokenMalformed = errors.New("token is malformed")
)

// Claims are the claims carried by a bearer token.
type Claims struct {
	IDRole        int `json:"id_role"`
	IDApplication int `json:"id_application"`
	jwt.RegisteredClaims
}

// Encode signs a new bearer token for the given role and application with
// the provided ttl.
func Encode(idRole, idApplication int, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		IDRole:        idRole,
		IDApplication: idApplication,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Decode parses and verifies a bearer token. It returns ErrTokenExpired for
// valid-but-stale tokens and ErrTokenInvalidSignature for tampered ones, so
// the two cases stay distinguishable to the caller.
func Decode(raw, secret string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrTokenInvalidSignature
	default:
		return nil, ErrTokenMalformed
	}
}
