package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/ira/internal/domain"
)

type fakeReader struct {
	pages []string
	err   error
}

func (f fakeReader) ReadPages(raw []byte) ([]string, error) {
	return f.pages, f.err
}

type fakeOCR struct {
	texts map[int]string
	err   error
	calls []int
}

func (f *fakeOCR) RecognizePage(ctx context.Context, raw []byte, page int) (string, error) {
	f.calls = append(f.calls, page)
	if f.err != nil {
		return "", f.err
	}
	return f.texts[page], nil
}

func TestExtract_EmptyInput(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(context.Background(), "doc.pdf", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestExtract_UnreadableDocument(t *testing.T) {
	e := &Extractor{reader: fakeReader{err: errors.New("bad xref")}}

	_, err := e.Extract(context.Background(), "doc.pdf", []byte("not a pdf"))
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeNoExtractableText, domainErr.Code)
}

func TestExtract_JoinsPagesWithMarkers(t *testing.T) {
	e := &Extractor{reader: fakeReader{pages: []string{"first page text", "second page text"}}}

	text, err := e.Extract(context.Background(), "doc.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Contains(t, text, "--- Page 1 ---")
	assert.Contains(t, text, "first page text")
	assert.Contains(t, text, "--- Page 2 ---")
	assert.Contains(t, text, "second page text")
}

func TestExtract_SkipsBlankPages(t *testing.T) {
	e := &Extractor{reader: fakeReader{pages: []string{"content", "   ", "more content"}}}

	text, err := e.Extract(context.Background(), "doc.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.NotContains(t, text, "--- Page 2 ---")
	assert.Contains(t, text, "--- Page 3 ---")
}

func TestExtract_NoTextOnAnyPage(t *testing.T) {
	e := &Extractor{reader: fakeReader{pages: []string{"", "  ", ""}}}

	_, err := e.Extract(context.Background(), "doc.pdf", []byte("pdf"))
	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
}

func TestExtract_OCRFillsImageOnlyPages(t *testing.T) {
	ocr := &fakeOCR{texts: map[int]string{2: "scanned page text"}}
	e := &Extractor{reader: fakeReader{pages: []string{"typed text", ""}}, ocr: ocr}

	text, err := e.Extract(context.Background(), "doc.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Contains(t, text, "scanned page text")
	assert.Equal(t, []int{2}, ocr.calls)
}

func TestExtract_OCRFailureSkipsPage(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("ocr backend down")}
	e := &Extractor{reader: fakeReader{pages: []string{"typed text", ""}}, ocr: ocr}

	text, err := e.Extract(context.Background(), "doc.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Contains(t, text, "typed text")
	assert.NotContains(t, text, "--- Page 2 ---")
}
