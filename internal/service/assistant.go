package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/petal-labs/ira/internal/domain"
	"github.com/petal-labs/ira/internal/session"
	"github.com/petal-labs/ira/internal/telemetry"
)

// Extractor turns an uploaded document into plain text.
type Extractor interface {
	Extract(ctx context.Context, filename string, raw []byte) (string, error)
}

// Answerer generates the final answer text, either grounded in document
// excerpts or from web results.
type Answerer interface {
	AnswerFromDocument(ctx context.Context, question string, contexts []string) (string, error)
	AnswerFromWeb(ctx context.Context, question string, results []domain.WebResult) (string, error)
}

// WebSearcher looks up off-document questions on the web. A nil searcher
// means the fallback path answers from general knowledge only.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]domain.WebResult, error)
}

// Archiver keeps a copy of uploaded documents in durable storage.
// Archival is best effort and never fails an upload.
type Archiver interface {
	Archive(ctx context.Context, key string, raw []byte) error
}

// Assistant orchestrates the document question answering flow: extract,
// chunk, index on upload; route and answer on ask.
type Assistant struct {
	extractor Extractor
	splitter  *Splitter
	answerer  Answerer
	web       WebSearcher
	archiver  Archiver
	routerCfg RouterConfig
}

func NewAssistant(extractor Extractor, splitter *Splitter, answerer Answerer, routerCfg RouterConfig) *Assistant {
	return &Assistant{
		extractor: extractor,
		splitter:  splitter,
		answerer:  answerer,
		routerCfg: routerCfg,
	}
}

// NewAssistantWithCollaborators wires the optional web search and
// archival collaborators in addition to the required ones.
func NewAssistantWithCollaborators(extractor Extractor, splitter *Splitter, answerer Answerer, web WebSearcher, archiver Archiver, routerCfg RouterConfig) *Assistant {
	a := NewAssistant(extractor, splitter, answerer, routerCfg)
	a.web = web
	a.archiver = archiver
	return a
}

// ProcessDocument extracts, chunks and indexes an uploaded document,
// replacing whatever the session had before. On failure the previously
// indexed document stays queryable. Returns the number of indexed chunks.
func (a *Assistant) ProcessDocument(ctx context.Context, sess *session.Session, filename string, raw []byte) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "assistant.process_document", telemetry.SpanAttributes{
		SessionID: sess.ID(),
		Document:  filename,
		Stage:     "extract",
	})
	defer span.End()

	text, err := a.extractor.Extract(ctx, filename, raw)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	chunks, err := a.splitter.Split(text, filename)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	if err := sess.Rebuild(ctx, filename, chunks); err != nil {
		span.SetError(err)
		return 0, err
	}

	if a.archiver != nil {
		key := fmt.Sprintf("%s/%s", sess.ID(), filename)
		if err := a.archiver.Archive(ctx, key, raw); err != nil {
			log.Printf("failed to archive %s: %v", key, err)
		}
	}

	log.Printf("indexed %q for session %s: %d chunks", filename, sess.ID(), len(chunks))
	return len(chunks), nil
}

// Ask answers a question against the session's document. Questions the
// document cannot answer fall back to web search when available, and to
// general knowledge otherwise.
func (a *Assistant) Ask(ctx context.Context, sess *session.Session, question string) (*domain.Answer, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "question cannot be empty")
	}

	ctx, span := telemetry.StartSpan(ctx, "assistant.ask", telemetry.SpanAttributes{
		SessionID: sess.ID(),
		Stage:     "route",
	})
	defer span.End()

	if !sess.HasDocument() {
		answer, err := a.answerFallback(ctx, q, []string{"no document indexed"})
		if err != nil {
			span.SetError(err)
		}
		return answer, err
	}

	router := NewRouter(sess.Index(), a.routerCfg)
	route := router.Route(ctx, q, a.routerCfg.TopK)

	if route.IsRelevant {
		contexts := make([]string, len(route.Results))
		for i, sc := range route.Results {
			contexts[i] = sc.Chunk.Text
		}

		text, err := a.answerer.AnswerFromDocument(ctx, q, contexts)
		if err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("failed to answer from document: %w", err)
		}
		return &domain.Answer{
			Text:       text,
			IsRelevant: true,
			Matched:    route.Results,
			Trace:      route.Trace,
		}, nil
	}

	answer, err := a.answerFallback(ctx, q, route.Trace)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	answer.Matched = route.Results
	return answer, nil
}

func (a *Assistant) answerFallback(ctx context.Context, question string, trace []string) (*domain.Answer, error) {
	var results []domain.WebResult
	if a.web != nil {
		found, err := a.web.Search(ctx, question)
		if err != nil {
			log.Printf("web search failed for query %q: %v", preview(question), err)
			trace = append(trace, "web search failed, answering from general knowledge")
		} else {
			trace = append(trace, fmt.Sprintf("web search returned %d results", len(found)))
			results = found
		}
	}

	text, err := a.answerer.AnswerFromWeb(ctx, question, results)
	if err != nil {
		return nil, fmt.Errorf("failed to answer from web: %w", err)
	}
	return &domain.Answer{
		Text:    text,
		Matched: []domain.ScoredChunk{},
		Trace:   trace,
	}, nil
}
