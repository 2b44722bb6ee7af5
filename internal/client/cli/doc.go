// Package cli provides the interactive homekey command-line client.
//
// It wires configuration, the local session database, the auth gateway and
// the onboarding flows behind a small REPL. A typical first run is:
//
//	register → verify → (resend) → login
//
// and a forgotten password goes through forgot → reset-link → reset.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// Every command handler returns its error to the REPL, which prints it
// through describeError; nothing escapes the loop.
package cli
