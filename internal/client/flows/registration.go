package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/homekey/internal/client/gateway"
	"github.com/dmitrijs2005/homekey/internal/client/validation"
	"github.com/dmitrijs2005/homekey/internal/logging"
)

const DefaultRole = "buyer"

// Profile is the registration form.
type Profile struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        []byte
	ConfirmPassword []byte
	Role            string
	Selfie          *gateway.Image
	GovernmentID    *gateway.Image
	AcceptedTerms   bool
}

type RegistrationFlow struct {
	gw    gateway.Gateway
	store Store
	log   logging.Logger
}

func NewRegistrationFlow(gw gateway.Gateway, store Store, log logging.Logger) *RegistrationFlow {
	return &RegistrationFlow{gw: gw, store: store, log: log.With("flow", "registration")}
}

// Submit validates p and registers it. A form that fails validation returns
// validation.Errors and nothing is sent. On success the email becomes the
// pending verification, replacing any earlier one.
//
// Nothing stops a second Submit while the first is in flight.
func (f *RegistrationFlow) Submit(ctx context.Context, p Profile) (gateway.RegisterResult, error) {
	if err := validation.ValidateRegistration(validation.Registration{
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		Password:        p.Password,
		ConfirmPassword: p.ConfirmPassword,
		HasSelfie:       p.Selfie != nil,
		HasGovernmentID: p.GovernmentID != nil,
		AcceptedTerms:   p.AcceptedTerms,
	}); err != nil {
		return gateway.RegisterResult{}, err
	}

	role := p.Role
	if role == "" {
		role = DefaultRole
	}
	email := strings.TrimSpace(p.Email)

	res, err := f.gw.Register(ctx, gateway.RegisterRequest{
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(p.Phone),
		Password:     p.Password,
		Role:         role,
		Selfie:       p.Selfie,
		GovernmentID: p.GovernmentID,
	})
	if err != nil {
		f.log.Info(ctx, "registration failed", "email", email, "error", err)
		return gateway.RegisterResult{}, err
	}

	if err := f.store.SetPendingEmail(ctx, email); err != nil {
		return res, fmt.Errorf("save pending verification: %w", err)
	}
	f.log.Info(ctx, "registered, awaiting verification", "email", email, "role", role)
	return res, nil
}
