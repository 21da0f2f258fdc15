package fhir

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"ppm-client/internal/pkg/constvars"
	"ppm-client/internal/pkg/exceptions"
)

// ExtractToken strips the given prefix from an Authorization header value.
func ExtractToken(header, prefix string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], prefix) {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// ValidateJWT verifies the token signature against the shared secret and
// returns its claims.
func ValidateJWT(secret, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, exceptions.WrapWithError(err, constvars.StatusUnauthorized, constvars.ErrClientCannotProcessRequest, "Invalid JWT")
	}
	if !parsed.Valid {
		return nil, exceptions.WrapWithoutError(constvars.StatusUnauthorized, constvars.ErrClientCannotProcessRequest, "Invalid JWT")
	}
	return claims, nil
}

// ForwardedAuthorization builds the Authorization header used when relaying a
// caller's validated JWT to the FHIR server.
func ForwardedAuthorization(prefix, token string) string {
	return prefix + " " + token
}
