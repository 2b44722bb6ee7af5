package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexInt accepts 3600, "3600", "" and null.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		fv, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		v = int64(fv)
	}
	*f = flexInt(v)
	return nil
}

// flexString accepts a string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexText accepts a string or a list of strings (joined with "; ").
// Anything else decodes to "".
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*f = flexText(strings.Join(list, "; "))
		return nil
	}
	*f = ""
	return nil
}

// TokenPair is the normalised token payload of register, login and verify.
// Expiries are in seconds; zero means the backend did not say.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int64
	RefreshExpiresIn int64
}

// Empty is true when the backend acknowledged the call without tokens.
func (t TokenPair) Empty() bool {
	return t.AccessToken == ""
}

// User is the account summary returned with tokens. Raw keeps the original
// JSON so the profile can be cached as sent.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      string
	Raw       json.RawMessage
}

type userFields struct {
	ID        flexString `json:"id"`
	MongoID   flexString `json:"_id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone"`
	Role      string     `json:"role"`
}

type tokenFields struct {
	AccessToken      string          `json:"access_token"`
	AccessTokenCamel string          `json:"accessToken"`
	RefreshToken     string          `json:"refresh_token"`
	RefreshCamel     string          `json:"refreshToken"`
	Token            string          `json:"token"`
	ExpiresInAccess  flexInt         `json:"expires_in_access"`
	ExpiresInRefresh flexInt         `json:"expires_in_refresh"`
	ExpiresIn        flexInt         `json:"expires_in"`
	User             json.RawMessage `json:"user"`
}

func (t tokenFields) pair() TokenPair {
	p := TokenPair{
		AccessToken:      firstNonEmpty(t.AccessToken, t.AccessTokenCamel, t.Token),
		RefreshToken:     firstNonEmpty(t.RefreshToken, t.RefreshCamel),
		AccessExpiresIn:  int64(t.ExpiresInAccess),
		RefreshExpiresIn: int64(t.ExpiresInRefresh),
	}
	if p.AccessExpiresIn == 0 {
		p.AccessExpiresIn = int64(t.ExpiresIn)
	}
	return p
}

// envelope matches every success body the backend has used:
//
//	{"statusCode":0,"data":{"access_token":...}}
//	{"access_token":...}
//	{"token":...,"user":{...}}
//	(empty body)
type envelope struct {
	StatusCode *flexInt     `json:"statusCode"`
	Message    flexText     `json:"message"`
	Data       *tokenFields `json:"data"`
	tokenFields
}

type shape string

const (
	shapeWrapped shape = "wrapped"
	shapeFlat    shape = "flat"
	shapeEmpty   shape = "empty"
)

// payload is the decoded form every caller works with.
type payload struct {
	Tokens     TokenPair
	User       User
	StatusCode int
	Message    string
	Shape      shape
}

func decodePayload(raw []byte) (payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return payload{Shape: shapeEmpty}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return payload{}, fmt.Errorf("decode response: %w", err)
	}

	p := payload{Message: string(env.Message), Shape: shapeFlat}
	if env.StatusCode != nil {
		p.StatusCode = int(*env.StatusCode)
	}

	fields := env.tokenFields
	if env.Data != nil {
		p.Shape = shapeWrapped
		fields = *env.Data
		if len(fields.User) == 0 {
			fields.User = env.User
		}
	}
	p.Tokens = fields.pair()

	if len(fields.User) > 0 && string(fields.User) != "null" {
		u, err := decodeUser(fields.User)
		if err != nil {
			return payload{}, err
		}
		p.User = u
	}

	if p.Tokens.Empty() && p.User.Raw == nil && p.Shape == shapeFlat {
		p.Shape = shapeEmpty
	}
	return p, nil
}

func decodeUser(raw json.RawMessage) (User, error) {
	var f userFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return User{
		ID:        firstNonEmpty(string(f.ID), string(f.MongoID)),
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Phone:     f.Phone,
		Role:      f.Role,
		Raw:       append(json.RawMessage(nil), raw...),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
