package cli

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/homekey/internal/client/flows"
	"github.com/dmitrijs2005/homekey/internal/client/gateway"
	"github.com/dmitrijs2005/homekey/internal/client/session"
	"github.com/dmitrijs2005/homekey/internal/client/validation"
)

var messages = []struct {
	err error
	msg string
}{
	{flows.ErrCooldownActive, "Please wait before requesting another code."},
	{flows.ErrCodeIncomplete, "Enter all 6 digits of the code."},
	{flows.ErrInvalidState, "That action is not available right now."},
	{flows.ErrNoResetToken, "Open the reset link from your email first (reset-link <token>)."},
	{errCodeNotDigits, "The code can only contain digits."},
	{session.ErrSealed, "Stored tokens are encrypted. Set HOMEKEY_STORE_PASSPHRASE to read them."},
	{gateway.ErrInvalidCredentials, "Invalid email or password."},
	{gateway.ErrAccountNotFound, "No account found for this email."},
	{gateway.ErrInvalidOrExpiredCode, "The code is invalid or has expired."},
	{gateway.ErrRegistrationNotFound, "No pending registration was found for this email."},
	{gateway.ErrEmailNotRegistered, "This email is not registered."},
	{gateway.ErrEmailTaken, "An account with this email already exists."},
	{gateway.ErrInvalidOrExpiredToken, "The reset link is invalid or has expired. Request a new one with 'forgot'."},
	{gateway.ErrNetwork, "Cannot reach the server. Check your connection and try again."},
	{gateway.ErrRateLimit, "Too many requests. Please wait a moment and try again."},
}

// describeError turns any command error into a message for the user.
func describeError(err error) string {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		lines := make([]string, len(verrs))
		for i, fe := range verrs {
			lines[i] = "- " + fe.Message
		}
		return strings.Join(lines, "\n")
	}

	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}

	msg := gateway.ServerMessage(err)
	switch {
	case errors.Is(err, gateway.ErrValidation):
		if msg == "" {
			msg = strings.TrimPrefix(err.Error(), gateway.ErrValidation.Error()+": ")
		}
		return "Invalid input: " + msg
	case msg != "":
		return msg
	case errors.Is(err, gateway.ErrUnknown):
		return "Something went wrong. Please try again."
	default:
		return "Error: " + err.Error()
	}
}
