package fhir

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	t.Run("Valid Header", func(t *testing.T) {
		token, ok := ExtractToken("JWT abc.def.ghi", "JWT")
		assert.True(t, ok)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("Prefix Is Case Insensitive", func(t *testing.T) {
		token, ok := ExtractToken("jwt abc.def.ghi", "JWT")
		assert.True(t, ok)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("Wrong Prefix", func(t *testing.T) {
		_, ok := ExtractToken("Bearer abc.def.ghi", "JWT")
		assert.False(t, ok)
	})

	t.Run("Missing Token", func(t *testing.T) {
		_, ok := ExtractToken("JWT", "JWT")
		assert.False(t, ok)
	})

	t.Run("Empty Header", func(t *testing.T) {
		_, ok := ExtractToken("", "JWT")
		assert.False(t, ok)
	})
}

func TestValidateJWT(t *testing.T) {
	secret := "test-jwt-secret"

	signedToken := func(secret string, claims jwt.MapClaims) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(secret))
		assert.NoError(t, err)
		return signed
	}

	t.Run("Valid Token", func(t *testing.T) {
		token := signedToken(secret, jwt.MapClaims{"email": "participant@example.com"})

		claims, err := ValidateJWT(secret, token)
		assert.NoError(t, err)
		assert.Equal(t, "participant@example.com", claims["email"])
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token := signedToken("other-secret", jwt.MapClaims{"email": "participant@example.com"})

		_, err := ValidateJWT(secret, token)
		assert.Error(t, err)
	})

	t.Run("Malformed Token", func(t *testing.T) {
		_, err := ValidateJWT(secret, "not-a-token")
		assert.Error(t, err)
	})
}

func TestForwardedAuthorization(t *testing.T) {
	assert.Equal(t, "JWT abc", ForwardedAuthorization("JWT", "abc"))
}
