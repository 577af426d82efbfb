package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

const defaultRefreshTokenTTL = 7 * 24 * time.Hour

type AuthService struct {
	profiles       ports.ProfileRepository
	refreshTokens  ports.RefreshTokenRepository
	googleVerifier ports.IdentityVerifier
	tokens         ports.TokenIssuer
	logger         *slog.Logger
	refreshTTL     time.Duration
	now            func() time.Time
}

func NewAuthService(profiles ports.ProfileRepository, refreshTokens ports.RefreshTokenRepository, googleVerifier ports.IdentityVerifier, tokens ports.TokenIssuer, logger *slog.Logger, refreshTTL time.Duration) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTokenTTL
	}
	return &AuthService{
		profiles:       profiles,
		refreshTokens:  refreshTokens,
		googleVerifier: googleVerifier,
		tokens:         tokens,
		logger:         logger,
		refreshTTL:     refreshTTL,
		now:            time.Now,
	}
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, googleToken string) (*ports.AuthTokens, *domain.Identity, error) {
	identity, err := s.googleVerifier.Verify(ctx, googleToken)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid google token: %w", err)
	}

	profile, err := s.profiles.UpsertIdentity(ctx, *identity)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store profile: %w", err)
	}
	// A display name chosen by the participant wins over the provider's.
	if profile.DisplayName != "" {
		identity.DisplayName = profile.DisplayName
	}

	tokens, err := s.issue(ctx, *identity)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("participant logged in", slog.String("participant_id", identity.ParticipantID))
	return tokens, identity, nil
}

func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*ports.AuthTokens, error) {
	stored, err := s.lookup(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: refresh token not found", domain.ErrUnauthenticated)
	}
	if !stored.Usable(s.now()) {
		return nil, fmt.Errorf("%w: refresh token revoked or expired", domain.ErrUnauthenticated)
	}

	// Only the caller that revokes the token may use it, so a replayed or
	// concurrently used token yields no second pair.
	revoked, err := s.refreshTokens.RevokeRefreshToken(ctx, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		s.logger.Warn("refresh token reused", slog.String("participant_id", stored.ParticipantID))
		return nil, fmt.Errorf("%w: refresh token already used", domain.ErrUnauthenticated)
	}

	profile, err := s.profiles.GetByID(ctx, stored.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: participant %s not found", domain.ErrUnauthenticated, stored.ParticipantID)
	}

	return s.issue(ctx, domain.Identity{
		ParticipantID: profile.ID,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		DisplayName:   profile.DisplayName,
	})
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	stored, err := s.lookup(ctx, refreshToken)
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}

	if _, err := s.refreshTokens.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	s.logger.Info("participant logged out", slog.String("participant_id", stored.ParticipantID))
	return nil
}

func (s *AuthService) lookup(ctx context.Context, refreshToken string) (*domain.RefreshToken, error) {
	stored, err := s.refreshTokens.GetRefreshTokenByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return stored, nil
}

func (s *AuthService) issue(ctx context.Context, identity domain.Identity) (*ports.AuthTokens, error) {
	accessToken, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	stored := &domain.RefreshToken{
		ParticipantID: identity.ParticipantID,
		TokenHash:     hashToken(refreshToken),
		ExpiresAt:     s.now().Add(s.refreshTTL).UTC(),
	}
	if err := s.refreshTokens.StoreRefreshToken(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &ports.AuthTokens{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: stored.ExpiresAt,
	}, nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
