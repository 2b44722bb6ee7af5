package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/homekey/internal/flagx"
	"github.com/dmitrijs2005/homekey/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerBaseURL  string         `json:"server_base_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	ResendCooldown timex.Duration `json:"resend_cooldown"`
	DatabasePath   string         `json:"database_path"`
	LogLevel       string         `json:"log_level"`
	Role           string         `json:"role"`
}

// parseJson overlays Config with the fields present in the file named by -c
// or -config. Without either flag it does nothing. Read and unmarshal errors
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.ResendCooldown.Duration > 0 {
		cfg.ResendCooldown = jc.ResendCooldown.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.Role != "" {
		cfg.Role = jc.Role
	}
}
