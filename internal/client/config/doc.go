// Package config loads runtime configuration for the homekey CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, with a .env file in the working directory
//     loaded first (see parseEnv). Variables already set win over .env.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Environment
//
//	HOMEKEY_SERVER_URL        backend base URL
//	HOMEKEY_REQUEST_TIMEOUT   Go duration, e.g. "15s"
//	HOMEKEY_RESEND_COOLDOWN   Go duration
//	HOMEKEY_DB_PATH           SQLite file
//	HOMEKEY_LOG_LEVEL         debug | info | warn | error
//	HOMEKEY_ROLE              buyer | owner
//	HOMEKEY_STORE_PASSPHRASE  enables token sealing
//
// Supported flags
//
//	-a string   backend base URL
//	-t int      request timeout (seconds)
//	-d string   database file
//	-l string   log level
//	-r string   registration role
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "15s"
// or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://api.example.com",
//	  "request_timeout": "15s",
//	  "resend_cooldown": "60s",
//	  "database_path": "homekey.db",
//	  "log_level": "debug",
//	  "role": "owner"
//	}
//
// The passphrase is read from the environment only.
package config
