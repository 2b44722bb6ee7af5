package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// type satisfies it; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	Login(ctx context.Context, admin bool) error
	Forgot(ctx context.Context) error
	OpenResetLink(ctx context.Context, token string) error
	Reset(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, verify, resend, login [admin], forgot, reset-link <token>, reset, status, exit"
	helpLoggedIn  = "Available commands: status, logout, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// Errors returned by handlers are printed with describeError and the loop
// goes on. It returns on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - register            create an account
//	  - verify              enter the emailed 6-digit code
//	  - resend              send a new code (after the cooldown)
//	  - login [admin]       sign in
//	  - forgot              request a password reset email
//	  - reset-link <token>  open the link from that email
//	  - reset               choose a new password
//
//	Always:
//	  - status | help | exit | quit
//	  - logout (when logged in)
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("homekey %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "verify":
			cmdErr = a.Verify(ctx)

		case "resend":
			cmdErr = a.Resend(ctx)

		case "login":
			cmdErr = a.Login(ctx, len(args) > 0 && args[0] == "admin")

		case "forgot":
			cmdErr = a.Forgot(ctx)

		case "reset-link":
			if len(args) == 0 {
				printlnFn("Usage: reset-link <token>")
				continue
			}
			cmdErr = a.OpenResetLink(ctx, args[0])

		case "reset":
			cmdErr = a.Reset(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(describeError(cmdErr))
		}
		if err != nil {
			return
		}
	}
}
