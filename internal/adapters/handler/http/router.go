package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

func NewHandler(sessionHandler *SessionHandler, profileHandler *ProfileHandler, authHandler *AuthHandler, verifier ports.IdentityVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/google", authHandler.GoogleCallback)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(verifier))

		r.Get("/me", profileHandler.GetMe)
		r.Put("/me", profileHandler.UpdateMe)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.CreateSession)
			r.Get("/history", sessionHandler.GetHistory)
			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Post("/join", sessionHandler.JoinSession)
				r.Post("/votes", sessionHandler.SubmitVote)
				r.Post("/reveal", sessionHandler.RevealVotes)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
