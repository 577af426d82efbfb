package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
)

// IdentityVerifier authenticates a token. Failures wrap domain.ErrUnauthenticated.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

type RefreshTokenRepository interface {
	// StoreRefreshToken sets the token's ID and CreatedAt.
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	// GetRefreshTokenByHash returns nil, nil when no token has that hash.
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// RevokeRefreshToken reports whether this call revoked the token; false
	// means it was already revoked or does not exist.
	RevokeRefreshToken(ctx context.Context, id uuid.UUID) (bool, error)
}

type AuthTokens struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthService interface {
	// LoginWithGoogle returns tokens for the participant behind googleToken.
	LoginWithGoogle(ctx context.Context, googleToken string) (*AuthTokens, *domain.Identity, error)
	// RefreshAccessToken rotates refreshToken: it is revoked and a new pair is returned.
	RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error)
	// Logout revokes refreshToken. Unknown tokens are ignored.
	Logout(ctx context.Context, refreshToken string) error
}
