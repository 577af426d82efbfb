package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

type RefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]domain.RefreshToken
	byHash map[string]uuid.UUID
}

func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{
		tokens: make(map[uuid.UUID]domain.RefreshToken),
		byHash: make(map[string]uuid.UUID),
	}
}

var _ ports.RefreshTokenRepository = (*RefreshTokenRepository)(nil)

func (r *RefreshTokenRepository) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token.ID = uuid.New()
	token.CreatedAt = time.Now().UTC()
	r.tokens[token.ID] = *token
	r.byHash[token.TokenHash] = token.ID
	return nil
}

func (r *RefreshTokenRepository) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[tokenHash]
	if !ok {
		return nil, nil
	}
	token := r.tokens[id]
	return &token, nil
}

func (r *RefreshTokenRepository) RevokeRefreshToken(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok || token.Revoked {
		return false, nil
	}
	token.Revoked = true
	r.tokens[id] = token
	return true, nil
}
