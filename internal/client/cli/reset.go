package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/homekey/internal/common"
)

// Forgot requests a reset email. The answer is the same whether or not the
// account exists.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.reset.RequestReset(ctx, email); err != nil {
		return err
	}
	printlnFn("If an account exists for that email, a reset link is on its way.")
	return nil
}

// OpenResetLink stores the token from the emailed link.
func (a *App) OpenResetLink(ctx context.Context, token string) error {
	if err := a.reset.OpenLink(ctx, token); err != nil {
		return err
	}
	printlnFn("Reset link accepted. Type 'reset' to choose a new password.")
	return nil
}

// Reset sets a new password using the stored reset token.
func (a *App) Reset(ctx context.Context) error {
	password, err := getPassword("New password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Confirm new password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if err := a.reset.Reset(ctx, password, confirm); err != nil {
		return err
	}
	printlnFn("Password updated. Please log in.")
	return nil
}
