package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/homekey/internal/client/cooldown"
	"github.com/dmitrijs2005/homekey/internal/client/gateway"
	"github.com/dmitrijs2005/homekey/internal/client/otp"
	"github.com/dmitrijs2005/homekey/internal/client/session"
	"github.com/dmitrijs2005/homekey/internal/logging"
)

type State int

const (
	Collecting State = iota
	Submitting
	Verified
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Submitting:
		return "submitting"
	case Verified:
		return "verified"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EmailSource tells where the address being verified came from.
type EmailSource int

const (
	EmailFromParam EmailSource = iota + 1
	EmailFromPending
	EmailFallback
)

func (s EmailSource) String() string {
	switch s {
	case EmailFromParam:
		return "param"
	case EmailFromPending:
		return "pending"
	case EmailFallback:
		return "fallback"
	default:
		return "unset"
	}
}

// FallbackEmail is used when neither the caller nor the pending record
// supplies an address.
const FallbackEmail = "user@example.com"

type VerificationOption func(*VerificationFlow)

// WithCooldown replaces the default 60 second resend cooldown.
func WithCooldown(t *cooldown.Timer) VerificationOption {
	return func(f *VerificationFlow) { f.cooldown = t }
}

func WithClock(now func() time.Time) VerificationOption {
	return func(f *VerificationFlow) { f.now = now }
}

// VerificationFlow collects the six digit code, submits it and handles
// resending. It owns the resend cooldown; Close stops it.
type VerificationFlow struct {
	gw       gateway.Gateway
	store    Store
	log      logging.Logger
	now      func() time.Time
	cooldown *cooldown.Timer

	ctx    context.Context
	cancel context.CancelFunc

	state      State
	email      string
	source     EmailSource
	code       otp.Code
	needsLogin bool
}

func NewVerificationFlow(gw gateway.Gateway, store Store, log logging.Logger, opts ...VerificationOption) *VerificationFlow {
	f := &VerificationFlow{
		gw:    gw,
		store: store,
		log:   log.With("flow", "verification"),
		now:   time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	if f.cooldown == nil {
		f.cooldown = cooldown.New(cooldown.DefaultSeconds)
	}
	f.ctx, f.cancel = context.WithCancel(context.Background())
	return f
}

// Start resets the flow for email. An empty email falls back to the pending
// verification record and then to FallbackEmail. With codeJustSent the
// resend cooldown starts right away.
func (f *VerificationFlow) Start(ctx context.Context, email string, codeJustSent bool) error {
	f.state = Collecting
	f.code.Clear()
	f.needsLogin = false

	switch {
	case email != "":
		f.email, f.source = email, EmailFromParam
	default:
		pending, err := f.store.PendingEmail(ctx)
		if err != nil {
			return fmt.Errorf("read pending verification: %w", err)
		}
		if pending != "" {
			f.email, f.source = pending, EmailFromPending
		} else {
			f.email, f.source = FallbackEmail, EmailFallback
			f.log.Warn(ctx, "no email to verify, using placeholder", "email", FallbackEmail)
		}
	}

	if codeJustSent {
		f.cooldown.Start(f.ctx)
	}
	return nil
}

func (f *VerificationFlow) Email() string            { return f.email }
func (f *VerificationFlow) EmailSource() EmailSource { return f.source }
func (f *VerificationFlow) State() State             { return f.state }
func (f *VerificationFlow) Code() string             { return f.code.String() }
func (f *VerificationFlow) Cursor() int              { return f.code.Cursor() }

// NeedsLogin is true after a verification the backend confirmed without
// issuing tokens.
func (f *VerificationFlow) NeedsLogin() bool { return f.needsLogin }

// Input types one character. Only digits are accepted, and only while
// collecting.
func (f *VerificationFlow) Input(r rune) bool {
	if f.state != Collecting {
		return false
	}
	return f.code.Input(r)
}

func (f *VerificationFlow) Backspace() {
	if f.state == Collecting {
		f.code.Backspace()
	}
}

func (f *VerificationFlow) Paste(s string) bool {
	if f.state != Collecting {
		return false
	}
	return f.code.Paste(s)
}

// Submit sends the code. On failure the flow returns to collecting with an
// empty code and the gateway error is returned unchanged.
func (f *VerificationFlow) Submit(ctx context.Context) error {
	if f.state != Collecting {
		return ErrInvalidState
	}
	if !f.code.Complete() {
		return ErrCodeIncomplete
	}

	f.state = Submitting
	pair, err := f.gw.VerifyCode(ctx, f.code.String(), f.email)
	if err == nil {
		err = f.persist(ctx, pair)
	} else {
		f.forgetPending(ctx, err)
	}
	if err != nil {
		f.state = Collecting
		f.code.Clear()
		f.log.Info(ctx, "verification failed", "email", f.email, "error", err)
		return err
	}

	f.state = Verified
	f.cooldown.Stop()
	f.log.Info(ctx, "email verified", "email", f.email, "needs_login", f.needsLogin)
	return nil
}

func (f *VerificationFlow) persist(ctx context.Context, pair gateway.TokenPair) error {
	if pair.Empty() {
		if err := f.store.MarkVerified(ctx, f.email); err != nil {
			return fmt.Errorf("save verified email: %w", err)
		}
		f.needsLogin = true
		return nil
	}

	sess := session.New(pair.AccessToken, pair.RefreshToken, pair.AccessExpiresIn, pair.RefreshExpiresIn, f.email, f.now())
	if err := f.store.CompleteVerification(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Resend asks for a new code. It is refused while the cooldown runs. A
// failed resend leaves the cooldown as it was.
func (f *VerificationFlow) Resend(ctx context.Context) error {
	if f.state == Verified {
		return ErrInvalidState
	}
	if f.cooldown.Active() {
		return ErrCooldownActive
	}
	if err := f.gw.ResendCode(ctx, f.email); err != nil {
		f.log.Info(ctx, "resend failed", "email", f.email, "error", err)
		f.forgetPending(ctx, err)
		return err
	}
	f.cooldown.Start(f.ctx)
	f.log.Info(ctx, "verification code resent", "email", f.email)
	return nil
}

// forgetPending drops the pending record for the current email once the
// backend says there is no registration behind it.
func (f *VerificationFlow) forgetPending(ctx context.Context, err error) {
	if !OffersRegistration(err) {
		return
	}
	pending, perr := f.store.PendingEmail(ctx)
	if perr == nil && pending == f.email {
		perr = f.store.ClearPendingEmail(ctx)
	}
	if perr != nil {
		f.log.Warn(ctx, "failed to clear pending verification", "email", f.email, "error", perr)
	}
}

// CooldownRemaining is the number of seconds until Resend is allowed.
func (f *VerificationFlow) CooldownRemaining() int {
	return f.cooldown.Remaining()
}

// OffersRegistration reports whether err means there is nothing to verify
// for this address, so the user should register again.
func OffersRegistration(err error) bool {
	return errors.Is(err, gateway.ErrRegistrationNotFound) || errors.Is(err, gateway.ErrEmailNotRegistered)
}

func (f *VerificationFlow) Close() {
	f.cooldown.Stop()
	f.cancel()
}
