package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/homekey/internal/client/flows"
	"github.com/dmitrijs2005/homekey/internal/common"
)

// Register walks through the sign-up form. On success the verification flow
// starts for the new email with the resend cooldown running.
func (a *App) Register(ctx context.Context) error {
	var p flows.Profile
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"First name", &p.FirstName},
		{"Last name", &p.LastName},
		{"Email", &p.Email},
		{"Phone", &p.Phone},
	} {
		v, err := getSimpleText(a.reader, f.prompt, os.Stdout)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	var err error
	if p.Password, err = getPassword("Password", os.Stdout); err != nil {
		return err
	}
	defer common.WipeByteArray(p.Password)
	if p.ConfirmPassword, err = getPassword("Confirm password", os.Stdout); err != nil {
		return err
	}
	defer common.WipeByteArray(p.ConfirmPassword)

	selfie, err := getSimpleText(a.reader, "Path to selfie image", os.Stdout)
	if err != nil {
		return err
	}
	if p.Selfie, err = readImage(selfie); err != nil {
		return fmt.Errorf("read selfie: %w", err)
	}
	govID, err := getSimpleText(a.reader, "Path to government ID image", os.Stdout)
	if err != nil {
		return err
	}
	if p.GovernmentID, err = readImage(govID); err != nil {
		return fmt.Errorf("read government ID: %w", err)
	}
	if p.AcceptedTerms, err = GetYesNo(a.reader, "Do you accept the terms of service?", os.Stdout); err != nil {
		return err
	}
	p.Role = a.config.Role

	if _, err := a.registration.Submit(ctx, p); err != nil {
		return err
	}

	if err := a.verification.Start(ctx, "", true); err != nil {
		return err
	}
	a.verifying = true
	printlnFn(fmt.Sprintf("We sent a 6-digit code to %s. Type 'verify' to enter it.", a.verification.Email()))
	return nil
}

// Login signs in; admin adds the admin role header.
func (a *App) Login(ctx context.Context, admin bool) error {
	email, err := getSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.login.Login(ctx, email, password, admin)
	if err != nil {
		return err
	}

	a.userEmail = id.Email
	a.verifying = false
	if id.Role != "" {
		printlnFn(fmt.Sprintf("Logged in as %s (%s)", id.Email, id.Role))
	} else {
		printlnFn(fmt.Sprintf("Logged in as %s", id.Email))
	}
	return nil
}

// Logout clears the stored session and identity.
func (a *App) Logout(ctx context.Context) error {
	if err := a.login.Logout(ctx); err != nil {
		return err
	}
	a.userEmail = ""
	printlnFn("Logged out")
	return nil
}

// Status prints what is stored locally.
func (a *App) Status(ctx context.Context) error {
	st, err := a.login.Status(ctx)
	if err != nil {
		return err
	}

	switch {
	case !st.LoggedIn:
		printlnFn("Not logged in")
		if st.VerifiedEmail != "" {
			printlnFn(fmt.Sprintf("Email %s is verified; type 'login' to sign in", st.VerifiedEmail))
		}
	case st.Expired:
		printlnFn(fmt.Sprintf("Session for %s has expired, please log in again", st.Session.VerifiedEmail))
	default:
		email := st.Session.VerifiedEmail
		if st.HasIdentity {
			email = st.Identity.Email
		}
		msg := "Logged in as " + email
		if st.HasIdentity && st.Identity.Role != "" {
			msg += " (" + st.Identity.Role + ")"
		}
		if !st.ExpiresAt.IsZero() {
			msg += ", session valid until " + st.ExpiresAt.Format("2006-01-02 15:04")
		}
		printlnFn(msg)
	}

	if st.PendingEmail != "" {
		printlnFn("Awaiting verification of " + st.PendingEmail)
	}
	if st.ResetPending {
		printlnFn("A password reset link is open; type 'reset' to choose a new password")
	}
	return nil
}
