package handlers

import (
	"net/http"

	"github.com/petal-labs/ira/internal/api"
	"github.com/petal-labs/ira/internal/session"
)

type SessionHandler struct {
	manager *session.Manager
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.manager.Create()
	api.Success(w, http.StatusCreated, SessionResponse{SessionID: s.ID()})
}
