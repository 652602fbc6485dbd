package jwtutil_test

import (
	"testing"

	"github.com/Maderside/PropertyManagementSystem/pkg/config"
	"github.com/Maderside/PropertyManagementSystem/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
)

// resetDefaults restores the package configuration after a test tweaks it
func resetDefaults(t *testing.T) {
	t.Cleanup(func() {
		jwtutil.Initialize(&config.JWTConfig{
			SigningKey:        "propertysecretkey",
			ExpirationMinutes: 30,
		})
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := jwtutil.GenerateToken("alice@example.com", 7, "tenant")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := jwtutil.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "tenant", claims.Role)
}

func TestValidateExpiredToken(t *testing.T) {
	resetDefaults(t)
	jwtutil.Initialize(&config.JWTConfig{ExpirationMinutes: -1})

	token, err := jwtutil.GenerateToken("alice@example.com", 7, "tenant")
	assert.NoError(t, err)

	_, err = jwtutil.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateWrongKey(t *testing.T) {
	resetDefaults(t)

	token, err := jwtutil.GenerateToken("alice@example.com", 7, "tenant")
	assert.NoError(t, err)

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "anothersecret"})
	_, err = jwtutil.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbage(t *testing.T) {
	_, err := jwtutil.ValidateToken("not.a.token")
	assert.Error(t, err)
}
