package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

const maxDisplayNameLength = 80

type ProfileService struct {
	repo ports.ProfileRepository
}

func NewProfileService(repo ports.ProfileRepository) *ProfileService {
	return &ProfileService{
		repo: repo,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, id string, input ports.UpdateProfileInput) (*domain.Profile, error) {
	displayName := strings.TrimSpace(input.DisplayName)
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return nil, fmt.Errorf("%w: display name is longer than %d characters", domain.ErrInvalidArgument, maxDisplayNameLength)
	}
	photoURL := strings.TrimSpace(input.PhotoURL)
	if photoURL != "" {
		u, err := url.Parse(photoURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: photo url must be an absolute http(s) url", domain.ErrInvalidArgument)
		}
	}

	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if displayName != "" {
		profile.DisplayName = displayName
	}
	profile.PhotoURL = photoURL

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}
