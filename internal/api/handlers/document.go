package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/petal-labs/ira/internal/api"
	"github.com/petal-labs/ira/internal/session"
)

type DocumentService interface {
	ProcessDocument(ctx context.Context, sess *session.Session, filename string, raw []byte) (int, error)
}

type DocumentHandler struct {
	svc     DocumentService
	manager *session.Manager
}

func NewDocumentHandler(svc DocumentService, manager *session.Manager) *DocumentHandler {
	return &DocumentHandler{svc: svc, manager: manager}
}

type DocumentResponse struct {
	Document   string `json:"document"`
	ChunkCount int    `json:"chunk_count"`
}

// Upload accepts a multipart PDF under the "file" field and replaces the
// session's indexed document with it.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename := header.Filename
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		api.Error(w, http.StatusBadRequest, "only pdf files are supported")
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if len(raw) == 0 {
		api.Error(w, http.StatusBadRequest, "uploaded file is empty")
		return
	}

	count, err := h.svc.ProcessDocument(r.Context(), sess, filename, raw)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DocumentResponse{
		Document:   filename,
		ChunkCount: count,
	})
}
