package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ports.ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, email, email_verified, display_name, photo_url, created_at, updated_at`

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM participants WHERE id = $1`
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeError("failed to get profile", err)
	}
	return profile, nil
}

// UpsertIdentity keeps a display name the participant already chose.
func (r *ProfileRepository) UpsertIdentity(ctx context.Context, identity domain.Identity) (*domain.Profile, error) {
	query := `
		INSERT INTO participants (id, email, email_verified, display_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			email_verified = EXCLUDED.email_verified,
			display_name = CASE WHEN participants.display_name = '' THEN EXCLUDED.display_name ELSE participants.display_name END,
			updated_at = NOW()
		RETURNING ` + profileColumns
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query,
		identity.ParticipantID, identity.Email, identity.EmailVerified, identity.DisplayName,
	))
	if err != nil {
		return nil, storeError("failed to upsert profile", err)
	}
	return profile, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE participants SET display_name = $2, photo_url = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, profile.ID, profile.DisplayName, profile.PhotoURL).Scan(&profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, profile.ID)
		}
		return storeError("failed to update profile", err)
	}
	profile.UpdatedAt = profile.UpdatedAt.UTC()
	return nil
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	profile := &domain.Profile{}
	err := row.Scan(
		&profile.ID, &profile.Email, &profile.EmailVerified, &profile.DisplayName,
		&profile.PhotoURL, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	profile.CreatedAt = profile.CreatedAt.UTC()
	profile.UpdatedAt = profile.UpdatedAt.UTC()
	return profile, nil
}
