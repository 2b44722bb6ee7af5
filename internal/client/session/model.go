package session

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Persisted keys. The plain names hold the Session and the verification
// records; the "@" names hold the Identity cache written at login.
const (
	KeyAccessToken      = "accessToken"
	KeyRefreshToken     = "refreshToken"
	KeyAccessExpiresIn  = "accessExpiresIn"
	KeyRefreshExpiresIn = "refreshExpiresIn"
	KeyVerifiedEmail    = "verifiedEmail"
	KeyIssuedAt         = "sessionIssuedAt"

	KeyPendingEmail = "pendingVerificationEmail"
	KeyResetToken   = "passwordResetToken"

	KeyAuthToken   = "@auth_token"
	KeyUserEmail   = "@user_email"
	KeyUserRole    = "@user_role"
	KeyUserProfile = "@user_profile"

	keySealSalt = "_seal_salt"
)

var (
	sessionKeys = []string{
		KeyAccessToken, KeyRefreshToken, KeyAccessExpiresIn,
		KeyRefreshExpiresIn, KeyVerifiedEmail, KeyIssuedAt,
	}
	identityKeys = []string{KeyAuthToken, KeyUserEmail, KeyUserRole, KeyUserProfile}

	// sealedKeys are encrypted at rest when sealing is enabled.
	sealedKeys = map[string]struct{}{
		KeyAccessToken:  {},
		KeyRefreshToken: {},
		KeyResetToken:   {},
		KeyAuthToken:    {},
	}
)

// Session is the persisted token bundle of an authenticated user.
// Expiries are in seconds relative to IssuedAt.
type Session struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int64
	RefreshExpiresIn int64
	VerifiedEmail    string
	IssuedAt         time.Time
}

// New builds a Session issued at now. When accessExpiresIn is zero it is
// taken from the access token's exp claim, if the token is a JWT.
func New(accessToken, refreshToken string, accessExpiresIn, refreshExpiresIn int64, email string, now time.Time) Session {
	if accessExpiresIn == 0 {
		if exp, ok := TokenExpiry(accessToken); ok && exp.After(now) {
			accessExpiresIn = int64(exp.Sub(now) / time.Second)
		}
	}
	if refreshExpiresIn == 0 {
		if exp, ok := TokenExpiry(refreshToken); ok && exp.After(now) {
			refreshExpiresIn = int64(exp.Sub(now) / time.Second)
		}
	}
	return Session{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  accessExpiresIn,
		RefreshExpiresIn: refreshExpiresIn,
		VerifiedEmail:    email,
		IssuedAt:         now.Truncate(time.Second),
	}
}

// AccessExpiresAt is zero when the expiry is unknown.
func (s Session) AccessExpiresAt() time.Time {
	if s.AccessExpiresIn <= 0 || s.IssuedAt.IsZero() {
		return time.Time{}
	}
	return s.IssuedAt.Add(time.Duration(s.AccessExpiresIn) * time.Second)
}

// Expired reports whether the access token is past its known expiry.
// A session with unknown expiry never expires locally.
func (s Session) Expired(now time.Time) bool {
	at := s.AccessExpiresAt()
	return !at.IsZero() && !now.Before(at)
}

// Identity is the profile cache stored under the "@" keys.
type Identity struct {
	AuthToken string
	Email     string
	Role      string
	Profile   json.RawMessage
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature;
// the client has no key to verify with and only uses the value for display
// and local expiry checks.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
