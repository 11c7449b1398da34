package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/ira/internal/domain"
	"github.com/petal-labs/ira/internal/index"
	"github.com/petal-labs/ira/internal/session"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, filename string, raw []byte) (string, error) {
	args := m.Called(ctx, filename, raw)
	return args.String(0), args.Error(1)
}

type mockAnswerer struct {
	mock.Mock
}

func (m *mockAnswerer) AnswerFromDocument(ctx context.Context, question string, contexts []string) (string, error) {
	args := m.Called(ctx, question, contexts)
	return args.String(0), args.Error(1)
}

func (m *mockAnswerer) AnswerFromWeb(ctx context.Context, question string, results []domain.WebResult) (string, error) {
	args := m.Called(ctx, question, results)
	return args.String(0), args.Error(1)
}

type mockWebSearcher struct {
	mock.Mock
}

func (m *mockWebSearcher) Search(ctx context.Context, query string) ([]domain.WebResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WebResult), args.Error(1)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, key string, raw []byte) error {
	args := m.Called(ctx, key, raw)
	return args.Error(0)
}

func assistantTestSession(embedder index.Embedder) *session.Session {
	m := session.NewManager(func(sessionID string) index.Index {
		return index.NewMemory(embedder)
	})
	return m.Create()
}

func TestAssistant_ProcessDocument(t *testing.T) {
	extractor := new(mockExtractor)
	answerer := new(mockAnswerer)
	sess := assistantTestSession(&routeStubEmbedder{})

	text := strings.Repeat("Cats are obligate carnivores and eat mostly meat. ", 10)
	raw := []byte("%PDF-fake")
	extractor.On("Extract", mock.Anything, "cats.pdf", raw).Return(text, nil)

	a := NewAssistant(extractor, NewSplitter(DefaultChunkConfig()), answerer, DefaultRouterConfig())

	count, err := a.ProcessDocument(context.Background(), sess, "cats.pdf", raw)

	require.NoError(t, err)
	assert.Greater(t, count, 0)
	assert.True(t, sess.HasDocument())

	name, chunkCount := sess.Document()
	assert.Equal(t, "cats.pdf", name)
	assert.Equal(t, count, chunkCount)
	extractor.AssertExpectations(t)
}

func TestAssistant_ProcessDocument_ExtractionError(t *testing.T) {
	extractor := new(mockExtractor)
	sess := assistantTestSession(&routeStubEmbedder{})

	extractor.On("Extract", mock.Anything, "bad.pdf", mock.Anything).
		Return("", domain.ErrNoExtractableText)

	a := NewAssistant(extractor, NewSplitter(DefaultChunkConfig()), new(mockAnswerer), DefaultRouterConfig())

	_, err := a.ProcessDocument(context.Background(), sess, "bad.pdf", []byte("x"))

	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
	assert.False(t, sess.HasDocument())
}

func TestAssistant_ProcessDocument_ArchiveFailureIsNotFatal(t *testing.T) {
	extractor := new(mockExtractor)
	archiver := new(mockArchiver)
	sess := assistantTestSession(&routeStubEmbedder{})

	text := strings.Repeat("Plenty of content to survive the chunk filter here. ", 5)
	extractor.On("Extract", mock.Anything, "doc.pdf", mock.Anything).Return(text, nil)
	archiver.On("Archive", mock.Anything, sess.ID()+"/doc.pdf", mock.Anything).
		Return(errors.New("bucket unavailable"))

	a := NewAssistantWithCollaborators(extractor, NewSplitter(DefaultChunkConfig()),
		new(mockAnswerer), nil, archiver, DefaultRouterConfig())

	count, err := a.ProcessDocument(context.Background(), sess, "doc.pdf", []byte("x"))

	require.NoError(t, err)
	assert.Greater(t, count, 0)
	archiver.AssertExpectations(t)
}

func TestAssistant_Ask_EmptyQuestion(t *testing.T) {
	a := NewAssistant(new(mockExtractor), NewSplitter(DefaultChunkConfig()), new(mockAnswerer), DefaultRouterConfig())
	sess := assistantTestSession(&routeStubEmbedder{})

	_, err := a.Ask(context.Background(), sess, "   ")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestAssistant_Ask_NoDocumentFallsBack(t *testing.T) {
	answerer := new(mockAnswerer)
	sess := assistantTestSession(&routeStubEmbedder{})

	answerer.On("AnswerFromWeb", mock.Anything, "hello", mock.Anything).
		Return("general answer", nil)

	a := NewAssistant(new(mockExtractor), NewSplitter(DefaultChunkConfig()), answerer, DefaultRouterConfig())

	answer, err := a.Ask(context.Background(), sess, "hello")

	require.NoError(t, err)
	assert.Equal(t, "general answer", answer.Text)
	assert.False(t, answer.IsRelevant)
	answerer.AssertExpectations(t)
}

func TestAssistant_Ask_RelevantQuestionAnswersFromDocument(t *testing.T) {
	answerer := new(mockAnswerer)
	embedder := &routeStubEmbedder{vectors: map[string][]float32{
		"Cats are obligate carnivores and eat fish and meat plus the occasional treat.": {1, 0, 0},
		"What do cats eat?": {0.98, 0.02, 0},
	}}
	sess := assistantTestSession(embedder)
	require.NoError(t, sess.Rebuild(context.Background(), "cats.pdf", fuzzyCorpus(
		"Cats are obligate carnivores and eat fish and meat plus the occasional treat.",
	)))

	answerer.On("AnswerFromDocument", mock.Anything, "What do cats eat?",
		mock.MatchedBy(func(contexts []string) bool {
			return len(contexts) == 1 && strings.Contains(contexts[0], "obligate carnivores")
		})).Return("Cats eat fish and meat.", nil)

	a := NewAssistant(new(mockExtractor), NewSplitter(DefaultChunkConfig()), answerer, DefaultRouterConfig())

	answer, err := a.Ask(context.Background(), sess, "What do cats eat?")

	require.NoError(t, err)
	assert.True(t, answer.IsRelevant)
	assert.Equal(t, "Cats eat fish and meat.", answer.Text)
	assert.NotEmpty(t, answer.Matched)
	assert.NotEmpty(t, answer.Trace)
	answerer.AssertExpectations(t)
}

func TestAssistant_Ask_OffTopicQuestionUsesWebSearch(t *testing.T) {
	answerer := new(mockAnswerer)
	web := new(mockWebSearcher)
	embedder := &routeStubEmbedder{vectors: map[string][]float32{
		"Cats are obligate carnivores and eat fish and meat plus the occasional treat.": {1, 0, 0},
		"Explain quantum entanglement": {0, 0, 1},
	}}
	sess := assistantTestSession(embedder)
	require.NoError(t, sess.Rebuild(context.Background(), "cats.pdf", fuzzyCorpus(
		"Cats are obligate carnivores and eat fish and meat plus the occasional treat.",
	)))

	webResults := []domain.WebResult{{Title: "Entanglement", Snippet: "spooky action", Link: "https://example.com"}}
	web.On("Search", mock.Anything, "Explain quantum entanglement").Return(webResults, nil)
	answerer.On("AnswerFromWeb", mock.Anything, "Explain quantum entanglement", webResults).
		Return("It is correlated quantum state.", nil)

	a := NewAssistantWithCollaborators(new(mockExtractor), NewSplitter(DefaultChunkConfig()),
		answerer, web, nil, DefaultRouterConfig())

	answer, err := a.Ask(context.Background(), sess, "Explain quantum entanglement")

	require.NoError(t, err)
	assert.False(t, answer.IsRelevant)
	assert.Equal(t, "It is correlated quantum state.", answer.Text)
	answerer.AssertExpectations(t)
	web.AssertExpectations(t)
}

func TestAssistant_Ask_WebSearchFailureStillAnswers(t *testing.T) {
	answerer := new(mockAnswerer)
	web := new(mockWebSearcher)
	sess := assistantTestSession(&routeStubEmbedder{})

	web.On("Search", mock.Anything, "hello").Return(nil, errors.New("serp down"))
	answerer.On("AnswerFromWeb", mock.Anything, "hello", mock.Anything).
		Return("best effort answer", nil)

	a := NewAssistantWithCollaborators(new(mockExtractor), NewSplitter(DefaultChunkConfig()),
		answerer, web, nil, DefaultRouterConfig())

	answer, err := a.Ask(context.Background(), sess, "hello")

	require.NoError(t, err)
	assert.Equal(t, "best effort answer", answer.Text)
}
