package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/homekey/internal/client/config"
	"github.com/dmitrijs2005/homekey/internal/client/cooldown"
	"github.com/dmitrijs2005/homekey/internal/client/flows"
	"github.com/dmitrijs2005/homekey/internal/client/gateway"
	"github.com/dmitrijs2005/homekey/internal/client/session"
	"github.com/dmitrijs2005/homekey/internal/client/storage"
	"github.com/dmitrijs2005/homekey/internal/filex"
	"github.com/dmitrijs2005/homekey/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	registration *flows.RegistrationFlow
	verification *flows.VerificationFlow
	login        *flows.LoginFlow
	reset        *flows.PasswordResetFlow

	verifying bool
	userEmail string
	reader    *bufio.Reader
}

// NewApp opens the local database, enables token sealing when a passphrase
// is configured and builds the flows around an HTTP gateway.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dsn, err := filex.EnsureParentDir(c.DatabasePath)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	store := session.NewStore(db)
	if c.StorePassphrase != "" {
		if err := store.EnableSealing(ctx, []byte(c.StorePassphrase)); err != nil {
			db.Close()
			return nil, err
		}
	}

	gw, err := gateway.New(gateway.Config{BaseURL: c.ServerBaseURL, Timeout: c.RequestTimeout}, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := newApp(c, log, gw, store)
	a.db = db
	a.restore(ctx)
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, gw gateway.Gateway, store flows.Store) *App {
	seconds := int(c.ResendCooldown.Seconds())
	return &App{
		config:       c,
		log:          log,
		registration: flows.NewRegistrationFlow(gw, store, log),
		verification: flows.NewVerificationFlow(gw, store, log, flows.WithCooldown(cooldown.New(seconds))),
		login:        flows.NewLoginFlow(gw, store, log),
		reset:        flows.NewPasswordResetFlow(gw, store, log),
		reader:       bufio.NewReader(os.Stdin),
	}
}

// restore picks up a session left by an earlier run.
func (a *App) restore(ctx context.Context) {
	st, err := a.login.Status(ctx)
	if err != nil {
		a.log.Warn(ctx, "failed to read stored session", "error", err)
		return
	}
	if !st.LoggedIn || st.Expired {
		return
	}
	a.userEmail = st.Session.VerifiedEmail
	if st.HasIdentity {
		a.userEmail = st.Identity.Email
	}
}

func (a *App) isLoggedIn() bool {
	return a.userEmail != ""
}

func (a *App) getStatus() string {
	switch {
	case a.userEmail != "":
		return fmt.Sprintf("(%s)", a.userEmail)
	case a.verifying:
		return fmt.Sprintf("(verifying %s)", a.verification.Email())
	default:
		return ""
	}
}

// Run blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("Welcome to homekey (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() error {
	a.verification.Close()
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
