package config_test

import (
	"testing"
	"time"

	"github.com/Maderside/PropertyManagementSystem/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "property_management", cfg.DB.DBName)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 30, cfg.JWT.ExpirationMinutes)
	assert.Equal(t, "property", cfg.Metrics.Prefix)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "pm_test")
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("JWT_EXPIRATION_MINUTES", "60")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")

	cfg, err := config.Load()
	assert.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "pm_test", cfg.DB.DBName)
	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, 60, cfg.JWT.ExpirationMinutes)
	assert.Equal(t, 30*time.Minute, cfg.DB.ConnMaxLifetime)
}

func TestGetDSN(t *testing.T) {
	cfg := config.DBConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "password",
		DBName:   "property_management",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=password dbname=property_management sslmode=disable",
		cfg.GetDSN())
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("JWT_EXPIRATION_MINUTES", "soon")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, 30, cfg.JWT.ExpirationMinutes)
}
