package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

const refreshTokenCookie = "refresh_token"

type AuthHandler struct {
	authService    ports.AuthService
	logger         *slog.Logger
	redirectURL    string
	cookieDomain   string
	cookieSameSite http.SameSite
	accessTTL      time.Duration
}

func NewAuthHandler(authService ports.AuthService, logger *slog.Logger, redirectURL string, cookieDomain string, cookieSameSite http.SameSite, accessTTL time.Duration) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authService:    authService,
		logger:         logger,
		redirectURL:    redirectURL,
		cookieDomain:   cookieDomain,
		cookieSameSite: cookieSameSite,
		accessTTL:      accessTTL,
	}
}

type tokenResponse struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	ParticipantID string `json:"participant_id,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
}

// GoogleCallback godoc
// @Summary      Logs a participant in with Google
// @Description  Exchanges a Google ID token (form field `credential`) for an access and a refresh token, both also set as cookies. Browsers are redirected when a redirect URL is configured.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        credential formData string true "Google ID token"
// @Success      200
// @Success      303
// @Failure      400
// @Failure      401
// @Router       /auth/google [post]
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	credential := r.FormValue("credential")
	if credential == "" {
		http.Error(w, "Missing credential", http.StatusBadRequest)
		return
	}

	tokens, identity, err := h.authService.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		h.authError(w, r, "Authentication failed: ", err)
		return
	}

	h.setTokenCookies(w, tokens)

	if h.redirectURL != "" {
		http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:   tokens.AccessToken,
		RefreshToken:  tokens.RefreshToken,
		ParticipantID: identity.ParticipantID,
		DisplayName:   identity.DisplayName,
	})
}

// Refresh godoc
// @Summary      Refreshes the participant's access token
// @Description  Rotates the refresh token (cookie or form field `refresh_token`): the presented one is revoked and a new access and refresh token pair is returned and set as cookies.
// @Tags         auth
// @Produce      json
// @Success      200
// @Failure      401
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshToken(r)
	if refreshToken == "" {
		http.Error(w, "Missing refresh token", http.StatusUnauthorized)
		return
	}

	tokens, err := h.authService.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		h.expireCookies(w)
		h.authError(w, r, "Refresh failed: ", err)
		return
	}

	h.setTokenCookies(w, tokens)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout godoc
// @Summary      Logs the participant out
// @Description  Revokes the refresh token and clears both token cookies
// @Tags         auth
// @Produce      json
// @Success      200
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if refreshToken := h.refreshToken(r); refreshToken != "" {
		if err := h.authService.Logout(r.Context(), refreshToken); err != nil {
			h.logger.Warn("failed to revoke refresh token", slog.String("error", err.Error()))
		}
	}

	h.expireCookies(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *AuthHandler) refreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.FormValue(refreshTokenCookie)
}

func (h *AuthHandler) authError(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	status := statusFor(err)
	if status != http.StatusUnauthorized {
		writeError(w, r, h.logger, err)
		return
	}
	http.Error(w, prefix+err.Error(), status)
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, tokens *ports.AuthTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Domain:   h.cookieDomain,
		HttpOnly: true,
		Secure:   true,
		SameSite: h.cookieSameSite,
		MaxAge:   int(h.accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/auth",
		Domain:   h.cookieDomain,
		HttpOnly: true,
		Secure:   true,
		SameSite: h.cookieSameSite,
		MaxAge:   int(time.Until(tokens.RefreshExpiresAt).Seconds()),
	})
}

func (h *AuthHandler) expireCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, MaxAge: -1, Path: "/", Domain: h.cookieDomain})
	http.SetCookie(w, &http.Cookie{Name: refreshTokenCookie, MaxAge: -1, Path: "/auth", Domain: h.cookieDomain})
}
