package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/homekey/internal/client/gateway"
	"github.com/dmitrijs2005/homekey/internal/client/validation"
	"github.com/dmitrijs2005/homekey/internal/logging"
)

// PasswordResetFlow covers "forgot password" and setting a new password from
// the emailed link.
type PasswordResetFlow struct {
	gw    gateway.Gateway
	store Store
	log   logging.Logger
}

func NewPasswordResetFlow(gw gateway.Gateway, store Store, log logging.Logger) *PasswordResetFlow {
	return &PasswordResetFlow{gw: gw, store: store, log: log.With("flow", "password-reset")}
}

// RequestReset always succeeds for a well-formed email.
func (f *PasswordResetFlow) RequestReset(ctx context.Context, email string) error {
	return f.gw.RequestPasswordReset(ctx, strings.TrimSpace(email))
}

// OpenLink stores the token carried by a reset link.
func (f *PasswordResetFlow) OpenLink(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoResetToken
	}
	if err := f.store.SetResetToken(ctx, token); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// Reset sets a new password with the stored token. The token is discarded
// once used and when the backend says it is invalid or expired.
func (f *PasswordResetFlow) Reset(ctx context.Context, password, confirm []byte) error {
	var errs validation.Errors
	if msg := validation.ValidatePassword(password); msg != "" {
		errs = append(errs, validation.FieldError{Field: validation.FieldPassword, Message: msg})
	}
	if msg := validation.ValidateConfirmPassword(password, confirm); msg != "" {
		errs = append(errs, validation.FieldError{Field: validation.FieldConfirmPassword, Message: msg})
	}
	if len(errs) > 0 {
		return errs
	}

	token, err := f.store.ResetToken(ctx)
	if err != nil {
		return fmt.Errorf("read reset token: %w", err)
	}
	if token == "" {
		return ErrNoResetToken
	}

	err = f.gw.ResetPassword(ctx, token, password)
	if err != nil && !errors.Is(err, gateway.ErrInvalidOrExpiredToken) {
		return err
	}
	if cerr := f.store.ClearResetToken(ctx); cerr != nil {
		f.log.Error(ctx, "failed to clear reset token", "error", cerr)
	}
	if err != nil {
		return err
	}
	f.log.Info(ctx, "password reset")
	return nil
}
