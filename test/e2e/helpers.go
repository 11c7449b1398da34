package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petal-labs/ira/internal/api/handlers"
	"github.com/petal-labs/ira/internal/domain"
	"github.com/petal-labs/ira/internal/index"
	"github.com/petal-labs/ira/internal/server"
	"github.com/petal-labs/ira/internal/service"
	"github.com/petal-labs/ira/internal/session"
)

// fakeExtractor treats the uploaded bytes as plain text, so tests can
// exercise the whole pipeline without real PDFs.
type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, filename string, raw []byte) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", domain.ErrNoExtractableText
	}
	return string(raw), nil
}

// keywordEmbedder produces deterministic vectors from keyword counts,
// giving texts about the same topic nearby embeddings.
type keywordEmbedder struct {
	keywords []string
}

func (e *keywordEmbedder) embed(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.keywords)+1)
	for i, kw := range e.keywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	// Keeps zero-keyword texts from collapsing to the zero vector.
	vec[len(e.keywords)] = 0.1
	return vec
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

// echoAnswerer reports which path produced the answer.
type echoAnswerer struct{}

func (echoAnswerer) AnswerFromDocument(ctx context.Context, question string, contexts []string) (string, error) {
	return fmt.Sprintf("document answer (%d excerpts)", len(contexts)), nil
}

func (echoAnswerer) AnswerFromWeb(ctx context.Context, question string, results []domain.WebResult) (string, error) {
	return "web answer", nil
}

type Env struct {
	Server *httptest.Server
	t      *testing.T
}

func SetupEnv(t *testing.T) *Env {
	t.Helper()

	embedder := &keywordEmbedder{keywords: []string{"cat", "fish", "sleep", "quantum"}}
	manager := session.NewManager(func(sessionID string) index.Index {
		return index.NewMemory(embedder)
	})

	assistant := service.NewAssistant(
		fakeExtractor{},
		service.NewSplitter(service.ChunkConfig{MaxChars: 200, Overlap: 40, MinChars: 20}),
		echoAnswerer{},
		service.DefaultRouterConfig(),
	)

	router := server.NewRouter(server.RouterConfig{
		SessionHandler:  handlers.NewSessionHandler(manager),
		DocumentHandler: handlers.NewDocumentHandler(assistant, manager),
		AskHandler:      handlers.NewAskHandler(assistant, manager),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &Env{Server: srv, t: t}
}

type Response struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (e *Env) Post(path string, body interface{}) (*Response, int) {
	e.t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		e.t.Fatalf("failed to marshal body: %v", err)
	}

	resp, err := http.Post(e.Server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		e.t.Fatalf("request failed: %v", err)
	}
	return e.parse(resp)
}

func (e *Env) Upload(path, filename string, content []byte) (*Response, int) {
	e.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		e.t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		e.t.Fatalf("failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		e.t.Fatalf("failed to close multipart writer: %v", err)
	}

	resp, err := http.Post(e.Server.URL+path, mw.FormDataContentType(), &buf)
	if err != nil {
		e.t.Fatalf("upload request failed: %v", err)
	}
	return e.parse(resp)
}

func (e *Env) Get(path string) (*Response, int) {
	e.t.Helper()

	resp, err := http.Get(e.Server.URL + path)
	if err != nil {
		e.t.Fatalf("request failed: %v", err)
	}
	return e.parse(resp)
}

func (e *Env) parse(resp *http.Response) (*Response, int) {
	e.t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("failed to read response body: %v", err)
	}

	var parsed Response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		e.t.Fatalf("failed to parse response %q: %v", raw, err)
	}
	return &parsed, resp.StatusCode
}
