package ports

import (
	"context"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
)

type ProfileRepository interface {
	// GetByID returns nil, nil when the profile does not exist.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	// UpsertIdentity creates the profile or refreshes its identity fields.
	UpsertIdentity(ctx context.Context, identity domain.Identity) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
}

type UpdateProfileInput struct {
	DisplayName string
	PhotoURL    string
}

type ProfileService interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*domain.Profile, error)
}
