// Package session is the client's Session Store: the persisted tokens, the
// pending verification email, the password reset token and the login
// identity cache, all kept in the local metadata table.
//
// Every multi-key write happens in one database transaction, so a session is
// either fully replaced or left as it was.
package session

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/homekey/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/homekey/internal/cryptox"
	"github.com/dmitrijs2005/homekey/internal/dbx"
)

var (
	ErrNoSession  = errors.New("no session stored")
	ErrNoIdentity = errors.New("no identity stored")
	// ErrSealed is returned when a stored value is encrypted but the store
	// was opened without a passphrase.
	ErrSealed = errors.New("stored value is sealed, a passphrase is required")
)

// sealedPrefix marks values written through Seal.
var sealedPrefix = []byte("sealed:v1:")

type Store struct {
	db  *sql.DB
	key []byte
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// EnableSealing encrypts token values written from now on with a key derived
// from passphrase. The salt is created on first use and kept in the table.
// Plain values written before sealing was enabled stay readable.
func (s *Store) EnableSealing(ctx context.Context, passphrase []byte) error {
	var salt []byte
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		existing, err := r.Get(ctx, keySealSalt)
		if err != nil {
			return err
		}
		if len(existing) == cryptox.SaltSize {
			salt = existing
			return nil
		}
		salt = cryptox.NewSalt()
		return r.Set(ctx, keySealSalt, salt)
	})
	if err != nil {
		return fmt.Errorf("enable sealing: %w", err)
	}
	s.key = cryptox.DeriveKey(passphrase, salt)
	return nil
}

func (s *Store) put(ctx context.Context, r metadata.Repository, key, value string) error {
	b := []byte(value)
	if _, ok := sealedKeys[key]; ok && s.key != nil {
		sealed, err := cryptox.Seal(s.key, b)
		if err != nil {
			return fmt.Errorf("seal %s: %w", key, err)
		}
		b = append(append([]byte{}, sealedPrefix...), sealed...)
	}
	return r.Set(ctx, key, b)
}

func (s *Store) get(ctx context.Context, r metadata.Repository, key string) (string, error) {
	b, err := r.Get(ctx, key)
	if err != nil || b == nil {
		return "", err
	}
	sealed, ok := bytes.CutPrefix(b, sealedPrefix)
	if !ok {
		return string(b), nil
	}
	if s.key == nil {
		return "", fmt.Errorf("read %s: %w", key, ErrSealed)
	}
	plain, err := cryptox.Open(s.key, sealed)
	if err != nil {
		return "", fmt.Errorf("unseal %s: %w", key, err)
	}
	return string(plain), nil
}

func (s *Store) getInt(ctx context.Context, r metadata.Repository, key string) (int64, error) {
	v, err := s.get(ctx, r, key)
	if err != nil || v == "" {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) writeSession(ctx context.Context, r metadata.Repository, sess Session) error {
	issued := sess.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	pairs := []struct{ k, v string }{
		{KeyAccessToken, sess.AccessToken},
		{KeyRefreshToken, sess.RefreshToken},
		{KeyAccessExpiresIn, strconv.FormatInt(sess.AccessExpiresIn, 10)},
		{KeyRefreshExpiresIn, strconv.FormatInt(sess.RefreshExpiresIn, 10)},
		{KeyVerifiedEmail, sess.VerifiedEmail},
		{KeyIssuedAt, strconv.FormatInt(issued.Unix(), 10)},
	}
	for _, p := range pairs {
		if err := s.put(ctx, r, p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// CompleteVerification stores the session returned by a successful code
// verification and drops the pending verification record.
func (s *Store) CompleteVerification(ctx context.Context, sess Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := s.writeSession(ctx, r, sess); err != nil {
			return err
		}
		return r.Delete(ctx, KeyPendingEmail)
	})
}

// MarkVerified records a verified email when the backend confirmed the code
// without issuing tokens. Any stored session and identity belong to some
// earlier login, so they are dropped in the same transaction and the user
// has to log in.
func (s *Store) MarkVerified(ctx context.Context, email string) error {
	keys := append(append([]string{KeyPendingEmail}, sessionKeys...), identityKeys...)
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Delete(ctx, keys...); err != nil {
			return err
		}
		return s.put(ctx, r, KeyVerifiedEmail, email)
	})
}

// SaveLogin stores the session and the identity cache together.
func (s *Store) SaveLogin(ctx context.Context, sess Session, id Identity) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := s.writeSession(ctx, r, sess); err != nil {
			return err
		}
		profile := string(id.Profile)
		if profile == "" {
			profile = "{}"
		}
		for _, p := range []struct{ k, v string }{
			{KeyAuthToken, id.AuthToken},
			{KeyUserEmail, id.Email},
			{KeyUserRole, id.Role},
			{KeyUserProfile, profile},
		} {
			if err := s.put(ctx, r, p.k, p.v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Session returns the stored session or ErrNoSession.
func (s *Store) Session(ctx context.Context) (Session, error) {
	r := s.repo(s.db)

	access, err := s.get(ctx, r, KeyAccessToken)
	if err != nil {
		return Session{}, err
	}
	if access == "" {
		return Session{}, ErrNoSession
	}

	sess := Session{AccessToken: access}
	if sess.RefreshToken, err = s.get(ctx, r, KeyRefreshToken); err != nil {
		return Session{}, err
	}
	if sess.AccessExpiresIn, err = s.getInt(ctx, r, KeyAccessExpiresIn); err != nil {
		return Session{}, err
	}
	if sess.RefreshExpiresIn, err = s.getInt(ctx, r, KeyRefreshExpiresIn); err != nil {
		return Session{}, err
	}
	if sess.VerifiedEmail, err = s.get(ctx, r, KeyVerifiedEmail); err != nil {
		return Session{}, err
	}
	issued, err := s.getInt(ctx, r, KeyIssuedAt)
	if err != nil {
		return Session{}, err
	}
	if issued > 0 {
		sess.IssuedAt = time.Unix(issued, 0)
	}
	return sess, nil
}

// VerifiedEmail is the last verified address. It outlives the session when
// verification returned no tokens.
func (s *Store) VerifiedEmail(ctx context.Context) (string, error) {
	return s.get(ctx, s.repo(s.db), KeyVerifiedEmail)
}

// Identity returns the identity cache or ErrNoIdentity.
func (s *Store) Identity(ctx context.Context) (Identity, error) {
	r := s.repo(s.db)

	var id Identity
	var err error
	if id.Email, err = s.get(ctx, r, KeyUserEmail); err != nil {
		return Identity{}, err
	}
	if id.Email == "" {
		return Identity{}, ErrNoIdentity
	}
	if id.AuthToken, err = s.get(ctx, r, KeyAuthToken); err != nil {
		return Identity{}, err
	}
	if id.Role, err = s.get(ctx, r, KeyUserRole); err != nil {
		return Identity{}, err
	}
	profile, err := s.get(ctx, r, KeyUserProfile)
	if err != nil {
		return Identity{}, err
	}
	if profile != "" {
		id.Profile = []byte(profile)
	}
	return id, nil
}

// Logout removes the session and the identity cache. Pending verification
// and reset tokens survive: they belong to flows that do not need a login.
func (s *Store) Logout(ctx context.Context) error {
	keys := append(append([]string{}, sessionKeys...), identityKeys...)
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).Delete(ctx, keys...)
	})
}

// SetPendingEmail overwrites the pending verification record.
func (s *Store) SetPendingEmail(ctx context.Context, email string) error {
	return s.put(ctx, s.repo(s.db), KeyPendingEmail, email)
}

// PendingEmail returns "" when nothing is pending.
func (s *Store) PendingEmail(ctx context.Context) (string, error) {
	return s.get(ctx, s.repo(s.db), KeyPendingEmail)
}

func (s *Store) ClearPendingEmail(ctx context.Context) error {
	return s.repo(s.db).Delete(ctx, KeyPendingEmail)
}

func (s *Store) SetResetToken(ctx context.Context, token string) error {
	return s.put(ctx, s.repo(s.db), KeyResetToken, token)
}

// ResetToken returns "" when no reset link has been opened.
func (s *Store) ResetToken(ctx context.Context) (string, error) {
	return s.get(ctx, s.repo(s.db), KeyResetToken)
}

func (s *Store) ClearResetToken(ctx context.Context) error {
	return s.repo(s.db).Delete(ctx, KeyResetToken)
}
