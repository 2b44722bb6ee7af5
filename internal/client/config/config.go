package config

import "time"

// Config holds runtime settings for the homekey CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the auth backend, e.g. https://api.example.com.
//   - RequestTimeout: bound on every backend request.
//   - ResendCooldown: wait between verification code resends.
//   - DatabasePath: SQLite file holding the local session.
//   - LogLevel: debug, info, warn or error.
//   - Role: role sent with registrations (buyer or owner).
//   - StorePassphrase: when set, tokens are sealed at rest with a key derived
//     from it.
type Config struct {
	ServerBaseURL   string
	RequestTimeout  time.Duration
	ResendCooldown  time.Duration
	DatabasePath    string
	LogLevel        string
	Role            string
	StorePassphrase string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 15 * time.Second
	c.ResendCooldown = 60 * time.Second
	c.DatabasePath = "homekey.db"
	c.LogLevel = "info"
	c.Role = "buyer"
	c.StorePassphrase = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (including a .env file), JSON (if present) and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
