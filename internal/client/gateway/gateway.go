// Package gateway is the client's Auth Gateway: one function per backend
// auth endpoint, each doing a single HTTP round-trip without retries.
//
// # Errors
//
// Every failure is an *APIError (or a validation error for input rejected
// before sending) and matches one failure kind with errors.Is:
// ErrNetwork, ErrValidation, ErrAuth, ErrConflict, ErrNotFound, ErrRateLimit
// or ErrUnknown. Specific sentinels such as ErrInvalidOrExpiredCode wrap
// their kind, so callers can match at either level.
//
// Classification prefers the backend's {errorCode, message} contract and
// falls back to status and message phrases for bodies without a code.
//
// # Responses
//
// Success bodies are decoded once into TokenPair and User whatever envelope
// the backend used.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/homekey/internal/common"
	"github.com/dmitrijs2005/homekey/internal/logging"
	"github.com/google/uuid"
)

const (
	opRegister      = "register"
	opLogin         = "login"
	opVerify        = "verify-email"
	opResend        = "resend-verification"
	opForgot        = "forgot-password"
	opResetPassword = "reset-password"

	maxBodySize = 1 << 20
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// Gateway is the contract the flows depend on.
type Gateway interface {
	Register(ctx context.Context, req RegisterRequest) (RegisterResult, error)
	Login(ctx context.Context, email string, password []byte, opts LoginOptions) (LoginResult, error)
	VerifyCode(ctx context.Context, code, email string) (TokenPair, error)
	ResendCode(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword []byte) error
}

// Image is an attached picture sent with registration.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

type RegisterRequest struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Password     []byte
	Role         string
	Selfie       *Image
	GovernmentID *Image
}

type RegisterResult struct {
	Tokens TokenPair
	User   User
}

type LoginOptions struct {
	// Admin sends the admin role header.
	Admin bool
}

type LoginResult struct {
	Tokens TokenPair
	User   User
}

type Config struct {
	BaseURL string
	// Timeout bounds each request end to end.
	Timeout time.Duration
	// HTTPClient overrides the default client; its Timeout is left as is.
	HTTPClient *http.Client
}

type HTTPGateway struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger
}

var _ Gateway = (*HTTPGateway)(nil)

func New(cfg Config, log logging.Logger) (*HTTPGateway, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPGateway{baseURL: u, http: client, log: log.With("component", "gateway")}, nil
}

type request struct {
	op          string
	path        string
	body        io.Reader
	contentType string
	headers     map[string]string
}

// do sends req and returns the body of a 2xx response. Any other outcome is
// returned as an error already classified for req.op.
func (g *HTTPGateway) do(ctx context.Context, req request) ([]byte, int, error) {
	endpoint := g.baseURL.JoinPath(req.path).String()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, req.body)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: create request: %w", req.op, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", common.UserAgent)
	httpReq.Header.Set(common.RequestIDHeaderName, requestID)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	log := g.log.With("op", req.op, "request_id", requestID)
	start := time.Now()

	resp, err := g.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, 0, fmt.Errorf("%s: %w", req.op, err)
		}
		log.Warn(ctx, "request failed", "error", err, "duration", time.Since(start))
		return nil, 0, &APIError{Op: req.op, Err: ErrNetwork, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, &APIError{Op: req.op, Status: resp.StatusCode, Err: ErrNetwork, Cause: err}
	}

	log.Debug(ctx, "request done", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classify(req.op, resp.StatusCode, raw)
		log.Info(ctx, "request rejected", "status", resp.StatusCode, "code", apiErr.Code, "kind", apiErr.Err)
		return nil, resp.StatusCode, apiErr
	}
	return raw, resp.StatusCode, nil
}

func jsonRequest(op, path string, v any) (request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return request{}, fmt.Errorf("%s: marshal request: %w", op, err)
	}
	return request{op: op, path: path, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

// decode parses a success body. A body that carries an error status inside
// a 2xx response is classified like a non-2xx one.
func decode(op string, raw []byte) (payload, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return payload{}, &APIError{Op: op, Err: ErrUnknown, Cause: err}
	}
	if p.StatusCode >= http.StatusBadRequest {
		return payload{}, classify(op, p.StatusCode, raw)
	}
	return p, nil
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func (g *HTTPGateway) Register(ctx context.Context, r RegisterRequest) (RegisterResult, error) {
	if !validEmail(r.Email) {
		return RegisterResult{}, validationError("invalid email %q", r.Email)
	}
	if r.Selfie == nil || r.GovernmentID == nil {
		return RegisterResult{}, validationError("selfie and government ID images are required")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := []struct{ name, value string }{
		{"firstName", r.FirstName},
		{"lastName", r.LastName},
		{"email", r.Email},
		{"phone", r.Phone},
		{"password", string(r.Password)},
		{"role", r.Role},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return RegisterResult{}, fmt.Errorf("%s: write field %s: %w", opRegister, f.name, err)
		}
	}
	for _, img := range []struct {
		field string
		image *Image
	}{{"selfie", r.Selfie}, {"governmentId", r.GovernmentID}} {
		if err := writeImage(mw, img.field, img.image); err != nil {
			return RegisterResult{}, fmt.Errorf("%s: %w", opRegister, err)
		}
	}
	if err := mw.Close(); err != nil {
		return RegisterResult{}, fmt.Errorf("%s: close multipart: %w", opRegister, err)
	}

	raw, _, err := g.do(ctx, request{
		op:          opRegister,
		path:        "/auth/register",
		body:        &body,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return RegisterResult{}, err
	}
	p, err := decode(opRegister, raw)
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{Tokens: p.Tokens, User: p.User}, nil
}

func writeImage(mw *multipart.Writer, field string, img *Image) error {
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, img.Name))
	h.Set("Content-Type", contentType)
	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := w.Write(img.Data); err != nil {
		return fmt.Errorf("write part %s: %w", field, err)
	}
	return nil
}

func (g *HTTPGateway) Login(ctx context.Context, email string, password []byte, opts LoginOptions) (LoginResult, error) {
	if !validEmail(email) {
		return LoginResult{}, validationError("invalid email %q", email)
	}
	if len(password) == 0 {
		return LoginResult{}, validationError("password is required")
	}

	req, err := jsonRequest(opLogin, "/auth/login", map[string]string{
		"email":    email,
		"password": string(password),
	})
	if err != nil {
		return LoginResult{}, err
	}
	if opts.Admin {
		req.headers = map[string]string{common.RoleHeaderName: "admin"}
	}

	raw, _, err := g.do(ctx, req)
	if err != nil {
		return LoginResult{}, err
	}
	p, err := decode(opLogin, raw)
	if err != nil {
		return LoginResult{}, err
	}
	if p.Tokens.Empty() {
		return LoginResult{}, &APIError{Op: opLogin, Err: ErrUnknown, Message: "response carried no access token"}
	}
	return LoginResult{Tokens: p.Tokens, User: p.User}, nil
}

// VerifyCode confirms a registration. An empty success body returns an
// empty TokenPair and no error.
func (g *HTTPGateway) VerifyCode(ctx context.Context, code, email string) (TokenPair, error) {
	if !codePattern.MatchString(code) {
		return TokenPair{}, validationError("verification code must be exactly 6 digits")
	}
	if !validEmail(email) {
		return TokenPair{}, validationError("invalid email %q", email)
	}

	req, err := jsonRequest(opVerify, "/auth/verify-email", map[string]string{
		"token": code,
		"email": email,
	})
	if err != nil {
		return TokenPair{}, err
	}
	raw, _, err := g.do(ctx, req)
	if err != nil {
		return TokenPair{}, err
	}
	p, err := decode(opVerify, raw)
	if err != nil {
		return TokenPair{}, err
	}
	g.log.Debug(ctx, "verify response decoded", "shape", p.Shape, "empty", p.Tokens.Empty())
	return p.Tokens, nil
}

func (g *HTTPGateway) ResendCode(ctx context.Context, email string) error {
	if !validEmail(email) {
		return validationError("invalid email %q", email)
	}
	req, err := jsonRequest(opResend, "/auth/resend-verification", map[string]string{"email": email})
	if err != nil {
		return err
	}
	_, _, err = g.do(ctx, req)
	return err
}

// RequestPasswordReset reports success for every well-formed email, whether
// or not an account exists and whether or not the backend was reachable.
func (g *HTTPGateway) RequestPasswordReset(ctx context.Context, email string) error {
	if !validEmail(email) {
		return validationError("invalid email %q", email)
	}
	req, err := jsonRequest(opForgot, "/auth/forgot-password", map[string]string{"email": email})
	if err != nil {
		return err
	}
	if _, _, err := g.do(ctx, req); err != nil {
		g.log.Warn(ctx, "password reset request not confirmed", "error", err)
	}
	return nil
}

func (g *HTTPGateway) ResetPassword(ctx context.Context, token string, newPassword []byte) error {
	if strings.TrimSpace(token) == "" {
		return validationError("reset token is required")
	}
	if len(newPassword) == 0 {
		return validationError("new password is required")
	}
	req, err := jsonRequest(opResetPassword, "/auth/reset-password", map[string]string{
		"token":       token,
		"newPassword": string(newPassword),
	})
	if err != nil {
		return err
	}
	_, _, err = g.do(ctx, req)
	return err
}
