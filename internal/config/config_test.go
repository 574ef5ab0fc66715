package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(3000), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, "./data.db", cfg.Database.Path)
	assert.Equal(t, "./data/uploads", cfg.Uploads.Dir)
	assert.Equal(t, time.Hour, cfg.Auth.TokenExpiry)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, 60*time.Second, cfg.Reader.SaveInterval)
	assert.Equal(t, 1000, cfg.Reader.LocationSamples)
	assert.Equal(t, "./data/library.db", cfg.Reader.LocalLibraryPath)
	assert.Equal(t, 2, cfg.Global.ShutdownTimeoutInSeconds)
}

func TestNewConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_PATH", "/srv/zenreader/data.db")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_TOKEN_EXPIRY", "30m")
	t.Setenv("READER_SAVE_INTERVAL", "10s")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id.apps.googleusercontent.com")

	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, "/srv/zenreader/data.db", cfg.Database.Path)
	assert.Equal(t, "top-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenExpiry)
	assert.Equal(t, 10*time.Second, cfg.Reader.SaveInterval)
	assert.Equal(t, "client-id.apps.googleusercontent.com", cfg.Auth.GoogleClientID)
}
