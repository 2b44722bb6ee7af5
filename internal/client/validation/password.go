// Package validation holds the client-side checks run before anything is
// sent to the backend.
package validation

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128

	// PasswordSymbols is the set a password must draw at least one symbol from.
	PasswordSymbols = `!@#$%^&*(),.?":{}|<>`
)

const (
	MsgPasswordTooShort  = "Password must be at least 8 characters"
	MsgPasswordTooLong   = "Password must be at most 128 characters"
	MsgPasswordLower     = "Password must contain at least one lowercase letter"
	MsgPasswordUpper     = "Password must contain at least one uppercase letter"
	MsgPasswordDigit     = "Password must contain at least one number"
	MsgPasswordSymbol    = `Password must contain at least one special character (!@#$%^&*(),.?":{}|<>)`
	MsgPasswordsMismatch = "Passwords do not match"
)

// ValidatePassword returns the message of the first rule the password breaks,
// checking length, lowercase, uppercase, digit and symbol in that order.
// It returns "" for an acceptable password.
func ValidatePassword(password []byte) string {
	n := utf8.RuneCount(password)
	switch {
	case n < MinPasswordLength:
		return MsgPasswordTooShort
	case n > MaxPasswordLength:
		return MsgPasswordTooLong
	}

	var lower, upper, digit, symbol bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.IndexByte(PasswordSymbols, c) >= 0:
			symbol = true
		}
	}

	switch {
	case !lower:
		return MsgPasswordLower
	case !upper:
		return MsgPasswordUpper
	case !digit:
		return MsgPasswordDigit
	case !symbol:
		return MsgPasswordSymbol
	}
	return ""
}

// ValidateConfirmPassword returns "" only when confirm equals password byte
// for byte.
func ValidateConfirmPassword(password, confirm []byte) string {
	if bytes.Equal(password, confirm) {
		return ""
	}
	return MsgPasswordsMismatch
}
