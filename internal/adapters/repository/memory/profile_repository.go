package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: make(map[string]domain.Profile),
	}
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (r *ProfileRepository) UpsertIdentity(ctx context.Context, identity domain.Identity) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	profile, ok := r.profiles[identity.ParticipantID]
	if !ok {
		profile = domain.Profile{
			ID:          identity.ParticipantID,
			DisplayName: identity.DisplayName,
			CreatedAt:   now,
		}
	}
	profile.Email = identity.Email
	profile.EmailVerified = identity.EmailVerified
	if profile.DisplayName == "" {
		profile.DisplayName = identity.DisplayName
	}
	profile.UpdatedAt = now

	r.profiles[identity.ParticipantID] = profile
	return &profile, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[profile.ID]; !ok {
		return domain.ErrProfileNotFound
	}
	profile.UpdatedAt = time.Now().UTC()
	r.profiles[profile.ID] = *profile
	return nil
}
