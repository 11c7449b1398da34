package session

import (
	"context"
	"sync"
	"time"

	"github.com/petal-labs/ira/internal/domain"
	"github.com/petal-labs/ira/internal/index"
)

// Session is one conversation: at most one indexed document at a time,
// replaced wholesale on each upload.
type Session struct {
	id string

	mu         sync.Mutex
	idx        index.Index
	document   string
	chunkCount int
	lastActive time.Time
}

func (s *Session) ID() string {
	return s.id
}

// Index returns the session's vector index. The index handles its own
// concurrency; callers search it directly.
func (s *Session) Index() index.Index {
	return s.idx
}

// Rebuild replaces the session's document with a freshly chunked one.
// On failure the previously indexed document stays queryable.
func (s *Session) Rebuild(ctx context.Context, document string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.idx.Build(ctx, chunks); err != nil {
		return err
	}
	s.document = document
	s.chunkCount = len(chunks)
	s.lastActive = time.Now()
	return nil
}

// Document reports the current document name and its chunk count.
func (s *Session) Document() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document, s.chunkCount
}

func (s *Session) HasDocument() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkCount > 0
}

func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
