package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "HOMEKEY_"

// dotEnvPath is the file loaded into the environment before it is read.
var dotEnvPath = ".env"

// parseEnv overlays Config with HOMEKEY_* variables. A missing .env file is
// fine; an unreadable one or an invalid duration panics.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}

	str("SERVER_URL", &cfg.ServerBaseURL)
	dur("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	dur("RESEND_COOLDOWN", &cfg.ResendCooldown)
	str("DB_PATH", &cfg.DatabasePath)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("ROLE", &cfg.Role)
	str("STORE_PASSPHRASE", &cfg.StorePassphrase)
}
