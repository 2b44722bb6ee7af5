package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/homekey/internal/client/flows"
)

var errCodeNotDigits = errors.New("verification code must contain digits only")

// ensureVerifying starts the verification flow for the pending email when
// the user comes back to it in a later session. Without a pending email the
// flow runs against the placeholder address and the user is warned.
func (a *App) ensureVerifying(ctx context.Context) error {
	if a.verifying {
		return nil
	}
	if err := a.verification.Start(ctx, "", false); err != nil {
		return err
	}
	if a.verification.EmailSource() == flows.EmailFallback {
		printlnFn(fmt.Sprintf("No registration is awaiting verification; using the placeholder address %s. Type 'register' to verify your own email.", a.verification.Email()))
	}
	a.verifying = true
	return nil
}

// Verify reads the emailed code and submits it.
func (a *App) Verify(ctx context.Context) error {
	if err := a.ensureVerifying(ctx); err != nil {
		return err
	}

	code, err := getSimpleText(a.reader, fmt.Sprintf("Enter the 6-digit code sent to %s", a.verification.Email()), os.Stdout)
	if err != nil {
		return err
	}

	for a.verification.Cursor() > 0 {
		a.verification.Backspace()
	}
	if strings.TrimSpace(code) != "" && !a.verification.Paste(code) {
		return errCodeNotDigits
	}

	if err := a.verification.Submit(ctx); err != nil {
		return err
	}

	a.verifying = false
	if a.verification.NeedsLogin() {
		a.userEmail = ""
		printlnFn("Email verified. Please log in.")
		return nil
	}
	a.userEmail = a.verification.Email()
	printlnFn("Email verified. You are logged in.")
	return nil
}

// Resend asks for a new code.
func (a *App) Resend(ctx context.Context) error {
	if err := a.ensureVerifying(ctx); err != nil {
		return err
	}

	err := a.verification.Resend(ctx)
	switch {
	case err == nil:
		printlnFn(fmt.Sprintf("A new code was sent to %s", a.verification.Email()))
		return nil
	case errors.Is(err, flows.ErrCooldownActive):
		printlnFn(fmt.Sprintf("You can request a new code in %d s", a.verification.CooldownRemaining()))
		return nil
	case flows.OffersRegistration(err):
		a.verifying = false
		printlnFn(describeError(err))
		printlnFn("Type 'register' to sign up again.")
		return nil
	default:
		return err
	}
}
