package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petal-labs/ira/internal/api"
	"github.com/petal-labs/ira/internal/domain"
	"github.com/petal-labs/ira/internal/session"
)

type AskService interface {
	Ask(ctx context.Context, sess *session.Session, question string) (*domain.Answer, error)
}

type AskHandler struct {
	svc     AskService
	manager *session.Manager
}

func NewAskHandler(svc AskService, manager *session.Manager) *AskHandler {
	return &AskHandler{svc: svc, manager: manager}
}

type AskRequest struct {
	Question string `json:"question"`
}

type MatchedChunk struct {
	Snippet  string  `json:"snippet"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

type AskResponse struct {
	Answer     string         `json:"answer"`
	IsRelevant bool           `json:"is_relevant"`
	Matched    []MatchedChunk `json:"matched"`
	Trace      []string       `json:"trace,omitempty"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	sess, err := h.manager.Get(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.svc.Ask(r.Context(), sess, req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	matched := make([]MatchedChunk, len(answer.Matched))
	for i, sc := range answer.Matched {
		matched[i] = MatchedChunk{
			Snippet:  makeSnippet(sc.Chunk.Text),
			Source:   sc.Chunk.Source,
			Distance: sc.Distance,
		}
	}

	api.Success(w, http.StatusOK, AskResponse{
		Answer:     answer.Text,
		IsRelevant: answer.IsRelevant,
		Matched:    matched,
		Trace:      answer.Trace,
	})
}

// makeSnippet truncates chunk text for display in responses.
func makeSnippet(text string) string {
	const maxLen = 220
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
