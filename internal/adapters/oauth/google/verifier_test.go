package google

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"google.golang.org/api/idtoken"
)

func TestVerifyMapsClaims(t *testing.T) {
	v := &GoogleVerifier{
		clientID: "client-id",
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			assert.Equal(t, "client-id", audience)
			return &idtoken.Payload{
				Subject: "1234567890",
				Claims: map[string]interface{}{
					"email":          "ada@example.com",
					"email_verified": true,
					"name":           "Ada Lovelace",
				},
			}, nil
		},
	}

	identity, err := v.Verify(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{
		ParticipantID: "1234567890",
		Email:         "ada@example.com",
		EmailVerified: true,
		DisplayName:   "Ada Lovelace",
	}, *identity)
}

func TestVerifyRejects(t *testing.T) {
	failing := &GoogleVerifier{clientID: "client-id", validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		return nil, errors.New("idtoken: token expired")
	}}
	_, err := failing.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = failing.Verify(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	noEmail := &GoogleVerifier{clientID: "client-id", validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Subject: "1", Claims: map[string]interface{}{}}, nil
	}}
	_, err = noEmail.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestNewVerifierRequiresClientID(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)

	v, err := NewVerifier("client-id")
	require.NoError(t, err)
	assert.Equal(t, "client-id", v.(*GoogleVerifier).clientID)
}

func TestVerifyWithoutAudienceRejects(t *testing.T) {
	called := false
	v := &GoogleVerifier{
		validate: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			called = true
			return &idtoken.Payload{Subject: "1", Claims: map[string]interface{}{"email": "a@example.com"}}, nil
		},
	}

	_, err := v.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.False(t, called)
}
