package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerBaseURL)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, 60*time.Second, c.ResendCooldown)
	assert.Equal(t, "homekey.db", c.DatabasePath)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "buyer", c.Role)
	assert.Empty(t, c.StorePassphrase)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	origDotEnv := dotEnvPath
	t.Cleanup(func() { dotEnvPath = origDotEnv })
	dotEnvPath = "does-not-exist.env"

	t.Setenv("HOMEKEY_SERVER_URL", "http://env:1")
	t.Setenv("HOMEKEY_DB_PATH", "env.db")
	t.Setenv("HOMEKEY_LOG_LEVEL", "warn")

	path := writeTempJSON(t, "", "", map[string]any{
		"server_base_url": "http://json:2",
		"log_level":       "debug",
	})
	os.Args = []string{"homekey", "-c", path, "-a", "http://flag:3"}

	cfg := LoadConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "http://flag:3", cfg.ServerBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "env.db", cfg.DatabasePath)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}
