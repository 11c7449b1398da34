package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/ira/internal/domain"
	"github.com/petal-labs/ira/internal/index"
	"github.com/petal-labs/ira/internal/session"
)

type mockDocumentService struct {
	mock.Mock
}

func (m *mockDocumentService) ProcessDocument(ctx context.Context, sess *session.Session, filename string, raw []byte) (int, error) {
	args := m.Called(ctx, sess, filename, raw)
	return args.Int(0), args.Error(1)
}

type mockAskService struct {
	mock.Mock
}

func (m *mockAskService) Ask(ctx context.Context, sess *session.Session, question string) (*domain.Answer, error) {
	args := m.Called(ctx, sess, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

func newTestManager() *session.Manager {
	return session.NewManager(func(sessionID string) index.Index {
		return index.NewMemory(nil)
	})
}

func testRouter(manager *session.Manager, docSvc DocumentService, askSvc AskService) http.Handler {
	r := chi.NewRouter()
	r.Post("/sessions", NewSessionHandler(manager).Create)
	r.Route("/sessions/{id}", func(r chi.Router) {
		if docSvc != nil {
			r.Post("/document", NewDocumentHandler(docSvc, manager).Upload)
		}
		if askSvc != nil {
			r.Post("/ask", NewAskHandler(askSvc, manager).Ask)
		}
	})
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSessionHandler_Create(t *testing.T) {
	manager := newTestManager()
	router := testRouter(manager, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.SessionID)
	assert.Equal(t, 1, manager.Len())
}

func TestDocumentHandler_Upload(t *testing.T) {
	manager := newTestManager()
	sess := manager.Create()
	svc := new(mockDocumentService)
	svc.On("ProcessDocument", mock.Anything, sess, "cats.pdf", []byte("%PDF-fake")).
		Return(7, nil)

	router := testRouter(manager, svc, nil)

	body, contentType := multipartBody(t, "file", "cats.pdf", []byte("%PDF-fake"))
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID()+"/document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data DocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cats.pdf", resp.Data.Document)
	assert.Equal(t, 7, resp.Data.ChunkCount)
	svc.AssertExpectations(t)
}

func TestDocumentHandler_Upload_UnknownSession(t *testing.T) {
	router := testRouter(newTestManager(), new(mockDocumentService), nil)

	body, contentType := multipartBody(t, "file", "cats.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/sessions/nope/document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentHandler_Upload_MissingFile(t *testing.T) {
	manager := newTestManager()
	sess := manager.Create()
	router := testRouter(manager, new(mockDocumentService), nil)

	body, contentType := multipartBody(t, "wrong_field", "cats.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID()+"/document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file is required")
}

func TestDocumentHandler_Upload_RejectsNonPDF(t *testing.T) {
	manager := newTestManager()
	sess := manager.Create()
	router := testRouter(manager, new(mockDocumentService), nil)

	body, contentType := multipartBody(t, "file", "notes.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID()+"/document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "only pdf files are supported")
}

func TestDocumentHandler_Upload_UnprocessableDocument(t *testing.T) {
	manager := newTestManager()
	sess := manager.Create()
	svc := new(mockDocumentService)
	svc.On("ProcessDocument", mock.Anything, sess, "scan.pdf", mock.Anything).
		Return(0, domain.ErrNoExtractableText)

	router := testRouter(manager, svc, nil)

	body, contentType := multipartBody(t, "file", "scan.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID()+"/document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAskHandler_Ask(t *testing.T) {
	manager := newTestManager()
	sess := manager.Create()
	svc := new(mockAskService)
	svc.On("Ask", mock.Anything, sess, "What do cats eat?").Return(&domain.Answer{
		Text:       "Cats eat fish.",
		IsRelevant: true,
		Matched: []domain.ScoredChunk{
			{Chunk: domain.Chunk{Text: "Cats eat fish and meat.", Source: "cats.pdf"}, Distance: 0.1},
		},
		Trace: []string{"vector search returned 1 results"},
	}, nil)

	router := testRouter(manager, nil, svc)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID()+"/ask",
		strings.NewReader(`{"question":"What do cats eat?"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data AskResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Cats eat fish.", resp.Data.Answer)
	assert.True(t, resp.Data.IsRelevant)
	require.Len(t, resp.Data.Matched, 1)
	assert.Equal(t, "cats.pdf", resp.Data.Matched[0].Source)
	svc.AssertExpectations(t)
}

func TestAskHandler_Ask_MissingQuestion(t *testing.T) {
	manager := newTestManager()
	sess := manager.Create()
	router := testRouter(manager, nil, new(mockAskService))

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID()+"/ask",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is required")
}

func TestAskHandler_Ask_InvalidBody(t *testing.T) {
	manager := newTestManager()
	sess := manager.Create()
	router := testRouter(manager, nil, new(mockAskService))

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID()+"/ask",
		strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskHandler_Ask_UnknownSession(t *testing.T) {
	router := testRouter(newTestManager(), nil, new(mockAskService))

	req := httptest.NewRequest(http.MethodPost, "/sessions/nope/ask",
		strings.NewReader(`{"question":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "short", makeSnippet("short"))

	long := strings.Repeat("a", 300)
	got := makeSnippet(long)
	assert.Len(t, []rune(got), 223)
	assert.True(t, strings.HasSuffix(got, "..."))
}
