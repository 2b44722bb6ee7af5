package flows

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/homekey/internal/client/gateway"
	"github.com/dmitrijs2005/homekey/internal/client/session"
	"github.com/dmitrijs2005/homekey/internal/client/storage"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	calls map[string]int

	registerReq gateway.RegisterRequest
	registerRes gateway.RegisterResult
	registerErr error

	loginEmail string
	loginOpts  gateway.LoginOptions
	loginRes   gateway.LoginResult
	loginErr   error

	verifyCode  string
	verifyEmail string
	verifyFn    func() (gateway.TokenPair, error)

	resendEmail string
	resendErr   error

	forgotEmail string

	resetToken    string
	resetPassword string
	resetErr      error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: map[string]int{}}
}

func (f *fakeGateway) Register(ctx context.Context, req gateway.RegisterRequest) (gateway.RegisterResult, error) {
	f.calls["register"]++
	f.registerReq = req
	return f.registerRes, f.registerErr
}

func (f *fakeGateway) Login(ctx context.Context, email string, password []byte, opts gateway.LoginOptions) (gateway.LoginResult, error) {
	f.calls["login"]++
	f.loginEmail, f.loginOpts = email, opts
	return f.loginRes, f.loginErr
}

func (f *fakeGateway) VerifyCode(ctx context.Context, code, email string) (gateway.TokenPair, error) {
	f.calls["verify"]++
	f.verifyCode, f.verifyEmail = code, email
	if f.verifyFn == nil {
		return gateway.TokenPair{}, nil
	}
	return f.verifyFn()
}

func (f *fakeGateway) ResendCode(ctx context.Context, email string) error {
	f.calls["resend"]++
	f.resendEmail = email
	return f.resendErr
}

func (f *fakeGateway) RequestPasswordReset(ctx context.Context, email string) error {
	f.calls["forgot"]++
	f.forgotEmail = email
	return nil
}

func (f *fakeGateway) ResetPassword(ctx context.Context, token string, newPassword []byte) error {
	f.calls["reset"]++
	f.resetToken, f.resetPassword = token, string(newPassword)
	return f.resetErr
}

var issued = time.Unix(1_700_000_000, 0)

func fixedClock() time.Time { return issued }

func newStore(t *testing.T) *session.Store {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "flows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return session.NewStore(db)
}
