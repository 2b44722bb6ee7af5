// Package common holds header names and small memory helpers shared by the
// gateway, the session store and the CLI.
package common

const (
	// RequestIDHeaderName correlates a client call with server logs.
	RequestIDHeaderName = "X-Request-ID"

	// RoleHeaderName selects the admin login variant.
	RoleHeaderName = "X-User-Role"

	UserAgent = "homekey-cli"
)
