package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/homekey/internal/common"
	"github.com/dmitrijs2005/homekey/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	path    string
	method  string
	headers http.Header
	body    map[string]string
}

// newServer returns a gateway pointed at a test server that answers every
// request with status and body, recording the last request.
func newServer(t *testing.T, status int, body string) (*HTTPGateway, *recorded, *atomic.Int32) {
	t.Helper()
	rec := &recorded{}
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		rec.path = r.URL.Path
		rec.method = r.Method
		rec.headers = r.Header.Clone()
		if r.Header.Get("Content-Type") == "application/json" {
			rec.body = map[string]string{}
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	g, err := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, logging.Discard())
	require.NoError(t, err)
	return g, rec, calls
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "ftp://example.com"}, logging.Discard())
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "://nope"}, logging.Discard())
	assert.Error(t, err)
}

func TestVerifyCode_Success(t *testing.T) {
	g, rec, _ := newServer(t, http.StatusOK,
		`{"statusCode":0,"data":{"access_token":"AT","refresh_token":"RT","expires_in_access":"3600","expires_in_refresh":"86400"}}`)

	pair, err := g.VerifyCode(context.Background(), "123456", "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, TokenPair{AccessToken: "AT", RefreshToken: "RT", AccessExpiresIn: 3600, RefreshExpiresIn: 86400}, pair)
	assert.Equal(t, "/auth/verify-email", rec.path)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, map[string]string{"token": "123456", "email": "a@b.com"}, rec.body)
	assert.Equal(t, common.UserAgent, rec.headers.Get("User-Agent"))
	_, err = uuid.Parse(rec.headers.Get(common.RequestIDHeaderName))
	assert.NoError(t, err)
}

func TestVerifyCode_EmptyBodyIsSuccess(t *testing.T) {
	g, _, _ := newServer(t, http.StatusOK, ``)

	pair, err := g.VerifyCode(context.Background(), "123456", "a@b.com")
	require.NoError(t, err)
	assert.True(t, pair.Empty())
}

func TestVerifyCode_ValidatesBeforeSending(t *testing.T) {
	g, _, calls := newServer(t, http.StatusOK, ``)
	ctx := context.Background()

	for _, code := range []string{"12345", "1234567", "12a456", "", "１２３４５６"} {
		_, err := g.VerifyCode(ctx, code, "a@b.com")
		assert.ErrorIs(t, err, ErrValidation, "code %q", code)
	}
	for _, email := range []string{"", "a@b", "a b@c.d", "@"} {
		_, err := g.VerifyCode(ctx, "123456", email)
		assert.ErrorIs(t, err, ErrValidation, "email %q", email)
	}
	assert.Zero(t, calls.Load())
}

func TestVerifyCode_ErrorStatusInsideSuccessBody(t *testing.T) {
	g, _, _ := newServer(t, http.StatusOK, `{"statusCode":400,"message":"Invalid or expired code"}`)

	_, err := g.VerifyCode(context.Background(), "123456", "a@b.com")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	assert.Equal(t, "Invalid or expired code", ServerMessage(err))
}

func TestResendCode(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "ok", status: http.StatusOK, body: `{"message":"sent"}`},
		{name: "accepted", status: http.StatusAccepted},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"message":"Please wait"}`, want: ErrRateLimit},
		{name: "not registered", status: http.StatusNotFound, body: `{"message":"Email not registered"}`, want: ErrEmailNotRegistered},
		{name: "server error", status: http.StatusInternalServerError, want: ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rec, _ := newServer(t, tt.status, tt.body)

			err := g.ResendCode(context.Background(), "a@b.com")
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, "/auth/resend-verification", rec.path)
			assert.Equal(t, map[string]string{"email": "a@b.com"}, rec.body)
		})
	}
}

func TestLogin(t *testing.T) {
	g, rec, _ := newServer(t, http.StatusOK,
		`{"access_token":"AT","refresh_token":"RT","expires_in_access":60,"user":{"id":"u1","email":"a@b.com","role":"admin"}}`)

	res, err := g.Login(context.Background(), "a@b.com", []byte("Secret1!"), LoginOptions{Admin: true})
	require.NoError(t, err)

	assert.Equal(t, "AT", res.Tokens.AccessToken)
	assert.Equal(t, int64(60), res.Tokens.AccessExpiresIn)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "admin", res.User.Role)
	assert.Equal(t, "/auth/login", rec.path)
	assert.Equal(t, "admin", rec.headers.Get(common.RoleHeaderName))
	assert.Equal(t, map[string]string{"email": "a@b.com", "password": "Secret1!"}, rec.body)
}

func TestLogin_NoRoleHeaderByDefault(t *testing.T) {
	g, rec, _ := newServer(t, http.StatusOK, `{"token":"T"}`)

	_, err := g.Login(context.Background(), "a@b.com", []byte("pw"), LoginOptions{})
	require.NoError(t, err)
	assert.Empty(t, rec.headers.Get(common.RoleHeaderName))
}

func TestLogin_Failures(t *testing.T) {
	g, _, _ := newServer(t, http.StatusOK, `{"message":"ok"}`)
	_, err := g.Login(context.Background(), "a@b.com", []byte("pw"), LoginOptions{})
	assert.ErrorIs(t, err, ErrUnknown)

	g, _, _ = newServer(t, http.StatusUnauthorized, `{"message":"Invalid password"}`)
	_, err = g.Login(context.Background(), "a@b.com", []byte("pw"), LoginOptions{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	g, _, _ = newServer(t, http.StatusNotFound, `{"message":"Account does not exist"}`)
	_, err = g.Login(context.Background(), "a@b.com", []byte("pw"), LoginOptions{})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = g.Login(context.Background(), "a@b.com", nil, LoginOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_Multipart(t *testing.T) {
	var (
		fields  = map[string]string{}
		files   = map[string]string{}
		ctypes  = map[string]string{}
		gotPath string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		for k, v := range r.MultipartForm.File {
			f, err := v[0].Open()
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			b, _ := io.ReadAll(f)
			f.Close()
			files[k] = v[0].Filename + ":" + string(b)
			ctypes[k] = v[0].Header.Get("Content-Type")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"statusCode":201,"data":{"user":{"id":"9","email":"a@b.com"}}}`)
	}))
	defer srv.Close()

	g, err := New(Config{BaseURL: srv.URL + "/", Timeout: time.Second}, logging.Discard())
	require.NoError(t, err)

	res, err := g.Register(context.Background(), RegisterRequest{
		FirstName:    "Ann",
		LastName:     "Lee",
		Email:        "a@b.com",
		Phone:        "+100",
		Password:     []byte("Secret1!"),
		Role:         "buyer",
		Selfie:       &Image{Name: "me.jpg", ContentType: "image/jpeg", Data: []byte("selfie")},
		GovernmentID: &Image{Name: "id.png", Data: []byte("\x89PNG\r\n\x1a\n")},
	})
	require.NoError(t, err)

	assert.Equal(t, "/auth/register", gotPath)
	assert.Equal(t, "9", res.User.ID)
	assert.True(t, res.Tokens.Empty())
	assert.Equal(t, map[string]string{
		"firstName": "Ann", "lastName": "Lee", "email": "a@b.com",
		"phone": "+100", "password": "Secret1!", "role": "buyer",
	}, fields)
	assert.Equal(t, "me.jpg:selfie", files["selfie"])
	assert.Equal(t, "image/jpeg", ctypes["selfie"])
	assert.Equal(t, "image/png", ctypes["governmentId"])
}

func TestRegister_EmailTaken(t *testing.T) {
	g, _, _ := newServer(t, http.StatusConflict, `{"message":"Email already registered"}`)

	_, err := g.Register(context.Background(), RegisterRequest{
		Email:        "a@b.com",
		Selfie:       &Image{Name: "s.jpg", Data: []byte("x")},
		GovernmentID: &Image{Name: "g.jpg", Data: []byte("y")},
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_MissingImagesNotSent(t *testing.T) {
	g, _, calls := newServer(t, http.StatusCreated, ``)

	_, err := g.Register(context.Background(), RegisterRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, calls.Load())
}

func TestRequestPasswordReset_AlwaysSucceeds(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		g, rec, _ := newServer(t, status, `{"message":"whatever"}`)

		assert.NoError(t, g.RequestPasswordReset(context.Background(), "nobody@b.com"))
		assert.Equal(t, "/auth/forgot-password", rec.path)
	}

	g, _, calls := newServer(t, http.StatusOK, ``)
	assert.ErrorIs(t, g.RequestPasswordReset(context.Background(), "not-an-email"), ErrValidation)
	assert.Zero(t, calls.Load())
}

func TestResetPassword(t *testing.T) {
	g, rec, _ := newServer(t, http.StatusOK, `{"message":"Password updated"}`)
	require.NoError(t, g.ResetPassword(context.Background(), "tok", []byte("NewSecret1!")))
	assert.Equal(t, map[string]string{"token": "tok", "newPassword": "NewSecret1!"}, rec.body)

	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		g, _, _ = newServer(t, status, `{}`)
		assert.ErrorIs(t, g.ResetPassword(context.Background(), "tok", []byte("x")), ErrInvalidOrExpiredToken)
	}

	assert.ErrorIs(t, g.ResetPassword(context.Background(), " ", []byte("x")), ErrValidation)
}

func TestDo_TransportFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g, err := New(Config{BaseURL: url, Timeout: time.Second}, logging.Discard())
	require.NoError(t, err)

	err = g.ResendCode(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, ErrNetwork)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.NotNil(t, apiErr.Cause)
}

func TestDo_TimeoutIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	g, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, logging.Discard())
	require.NoError(t, err)

	err = g.ResendCode(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestDo_CanceledIsNotNetwork(t *testing.T) {
	g, _, _ := newServer(t, http.StatusOK, ``)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.ResendCode(ctx, "a@b.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNetwork)
}
