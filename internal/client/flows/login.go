package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/homekey/internal/client/gateway"
	"github.com/dmitrijs2005/homekey/internal/client/session"
	"github.com/dmitrijs2005/homekey/internal/logging"
)

type LoginFlow struct {
	gw    gateway.Gateway
	store Store
	log   logging.Logger
	now   func() time.Time
}

func NewLoginFlow(gw gateway.Gateway, store Store, log logging.Logger) *LoginFlow {
	return &LoginFlow{gw: gw, store: store, log: log.With("flow", "login"), now: time.Now}
}

// Login signs in and stores the session together with the identity cache.
// Backend errors are returned as classified, so an unknown account and a
// wrong password remain distinguishable.
func (f *LoginFlow) Login(ctx context.Context, email string, password []byte, admin bool) (session.Identity, error) {
	email = strings.TrimSpace(email)

	res, err := f.gw.Login(ctx, email, password, gateway.LoginOptions{Admin: admin})
	if err != nil {
		f.log.Info(ctx, "login failed", "email", email, "error", err)
		return session.Identity{}, err
	}

	t := res.Tokens
	sess := session.New(t.AccessToken, t.RefreshToken, t.AccessExpiresIn, t.RefreshExpiresIn, email, f.now())
	id := session.Identity{
		AuthToken: t.AccessToken,
		Email:     email,
		Role:      res.User.Role,
		Profile:   res.User.Raw,
	}
	if res.User.Email != "" {
		id.Email = res.User.Email
	}
	if id.Role == "" && admin {
		id.Role = "admin"
	}

	if err := f.store.SaveLogin(ctx, sess, id); err != nil {
		return session.Identity{}, fmt.Errorf("save login: %w", err)
	}
	f.log.Info(ctx, "logged in", "email", id.Email, "role", id.Role)
	return id, nil
}

func (f *LoginFlow) Logout(ctx context.Context) error {
	if err := f.store.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	f.log.Info(ctx, "logged out")
	return nil
}

// Status is a snapshot of what is stored locally.
type Status struct {
	LoggedIn    bool
	Session     session.Session
	Identity    session.Identity
	HasIdentity bool
	Expired     bool
	ExpiresAt   time.Time

	// VerifiedEmail is set even without a session, after a verification
	// that issued no tokens.
	VerifiedEmail string
	PendingEmail  string
	ResetPending  bool
}

func (f *LoginFlow) Status(ctx context.Context) (Status, error) {
	var st Status

	sess, err := f.store.Session(ctx)
	switch {
	case err == nil:
		st.LoggedIn = true
		st.Session = sess
		st.ExpiresAt = sess.AccessExpiresAt()
		st.Expired = sess.Expired(f.now())
	case !errors.Is(err, session.ErrNoSession):
		return Status{}, err
	}

	id, err := f.store.Identity(ctx)
	switch {
	case err == nil:
		st.Identity, st.HasIdentity = id, true
	case !errors.Is(err, session.ErrNoIdentity):
		return Status{}, err
	}

	if st.VerifiedEmail, err = f.store.VerifiedEmail(ctx); err != nil {
		return Status{}, err
	}
	if st.PendingEmail, err = f.store.PendingEmail(ctx); err != nil {
		return Status{}, err
	}
	token, err := f.store.ResetToken(ctx)
	if err != nil {
		return Status{}, err
	}
	st.ResetPending = token != ""
	return st, nil
}
