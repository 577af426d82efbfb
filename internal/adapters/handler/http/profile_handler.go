package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

type ProfileHandler struct {
	service ports.ProfileService
	logger  *slog.Logger
}

func NewProfileHandler(service ports.ProfileService, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	pid, ok := participantID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), pid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	pid, ok := participantID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), pid, ports.UpdateProfileInput{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
