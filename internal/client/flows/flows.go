// Package flows holds the controllers behind each onboarding screen:
// registration, email verification, login and password reset. Controllers
// are driven from one goroutine; they call the gateway and persist what the
// backend returns through the session store.
package flows

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/homekey/internal/client/session"
)

var (
	ErrCooldownActive = errors.New("resend is cooling down")
	ErrCodeIncomplete = errors.New("verification code is incomplete")
	ErrInvalidState   = errors.New("action not allowed in current state")
	ErrNoResetToken   = errors.New("no password reset link has been opened")
)

// Store is the part of session.Store the flows use.
type Store interface {
	CompleteVerification(ctx context.Context, sess session.Session) error
	MarkVerified(ctx context.Context, email string) error
	SaveLogin(ctx context.Context, sess session.Session, id session.Identity) error
	Session(ctx context.Context) (session.Session, error)
	Identity(ctx context.Context) (session.Identity, error)
	Logout(ctx context.Context) error

	VerifiedEmail(ctx context.Context) (string, error)

	SetPendingEmail(ctx context.Context, email string) error
	PendingEmail(ctx context.Context) (string, error)
	ClearPendingEmail(ctx context.Context) error

	SetResetToken(ctx context.Context, token string) error
	ResetToken(ctx context.Context) (string, error)
	ClearResetToken(ctx context.Context) error
}

var _ Store = (*session.Store)(nil)
