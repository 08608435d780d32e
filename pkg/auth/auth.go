// Package auth extracts the caller's identity from a request.
//
// Tokens are issued and verified by the identity provider in front of the
// service (the API gateway authorizer), so this package only decodes the
// subject claim. It never re-validates trust.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrUnauthenticated is returned when a request carries no usable credential.
var ErrUnauthenticated = errors.New("unauthenticated")

const bearerScheme = "bearer"

var parser = jwt.NewParser()

// UserID returns the identifier of the user that made the request.
func UserID(r *http.Request) (string, error) {
	return UserIDFromAuthorization(r.Header.Get("Authorization"))
}

// UserIDFromAuthorization returns the subject of the bearer token in an
// Authorization header value.
func UserIDFromAuthorization(authorization string) (string, error) {
	if authorization == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", fmt.Errorf("%w: authorization is not a bearer token", ErrUnauthenticated)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrUnauthenticated)
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return "", fmt.Errorf("%w: decoding token: %s", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// NewToken mints an HS256 signed bearer token for the user. It is intended for
// local development and tests, where there is no identity provider.
func NewToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}
