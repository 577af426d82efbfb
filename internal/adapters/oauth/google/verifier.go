package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
	"google.golang.org/api/idtoken"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type GoogleVerifier struct {
	clientID string
	validate validateFunc
}

// NewVerifier requires the OAuth client ID: idtoken skips the audience check
// for an empty audience, which would accept tokens minted for any client.
func NewVerifier(clientID string) (ports.IdentityVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	if v.clientID == "" {
		return nil, fmt.Errorf("%w: verifier has no audience", domain.ErrUnauthenticated)
	}

	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	return identityFromPayload(payload)
}

func identityFromPayload(payload *idtoken.Payload) (*domain.Identity, error) {
	if payload.Subject == "" {
		return nil, fmt.Errorf("%w: subject not found in claims", domain.ErrUnauthenticated)
	}
	email, ok := payload.Claims["email"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, errors.New("email not found in claims"))
	}
	verified, _ := payload.Claims["email_verified"].(bool)
	name, _ := payload.Claims["name"].(string)

	return &domain.Identity{
		ParticipantID: payload.Subject,
		Email:         email,
		EmailVerified: verified,
		DisplayName:   name,
	}, nil
}
