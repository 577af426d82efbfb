package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

type SessionHandler struct {
	service ports.SessionService
	logger  *slog.Logger
}

func NewSessionHandler(service ports.SessionService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

type createSessionRequest struct {
	Name        string `json:"name"`
	PointSystem string `json:"point_system"`
	IsPublic    bool   `json:"is_public"`
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := participantID(w, r)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.service.CreateSession(r.Context(), ports.CreateSessionInput{
		OwnerID:     ownerID,
		Name:        req.Name,
		PointSystem: req.PointSystem,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	pid, ok := participantID(w, r)
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), chi.URLParam(r, "code"), pid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) JoinSession(w http.ResponseWriter, r *http.Request) {
	pid, ok := participantID(w, r)
	if !ok {
		return
	}

	session, err := h.service.JoinSession(r.Context(), chi.URLParam(r, "code"), pid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type voteRequest struct {
	// Value is a card label or a number.
	Value       json.RawMessage `json:"value"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
}

func (req voteRequest) card() (string, error) {
	raw := bytes.TrimSpace(req.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: vote value is required", domain.ErrInvalidArgument)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: invalid vote value", domain.ErrInvalidArgument)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: vote value must be a string or a number", domain.ErrInvalidArgument)
	}
	return n.String(), nil
}

func (h *SessionHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	pid, ok := participantID(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	value, err := req.card()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	input := ports.SubmitVoteInput{
		Code:          chi.URLParam(r, "code"),
		ParticipantID: pid,
		Value:         value,
	}
	if req.SubmittedAt != nil {
		input.SubmittedAt = *req.SubmittedAt
	}

	if err := h.service.SubmitVote(r.Context(), input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) RevealVotes(w http.ResponseWriter, r *http.Request) {
	pid, ok := participantID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.RevealVotes(r.Context(), chi.URLParam(r, "code"), pid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (h *SessionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	pid, ok := participantID(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.GetHistory(r.Context(), pid)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}
