package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

type contextKey string

const identityKey contextKey = "identity"

const accessTokenCookie = "access_token"

// Authenticate resolves the caller from an "Authorization: Bearer" header or
// the access token cookie and stores the identity in the request context.
func Authenticate(verifier ports.IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// IdentityFromContext returns the identity set by Authenticate.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}

func participantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing participant context", http.StatusUnauthorized)
		return "", false
	}
	return identity.ParticipantID, true
}
