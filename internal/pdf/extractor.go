package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/petal-labs/ira/internal/domain"
)

// OCR recognizes text on a page that carries no extractable text layer.
// Implementations receive the whole document and the 1-based page
// number. A nil OCR means image-only pages are skipped.
type OCR interface {
	RecognizePage(ctx context.Context, raw []byte, page int) (string, error)
}

// pageReader abstracts the underlying PDF library so extraction logic
// can be tested without real PDF bytes.
type pageReader interface {
	ReadPages(raw []byte) ([]string, error)
}

// Extractor pulls plain text out of PDF documents page by page.
// Unreadable pages are skipped rather than failing the whole document;
// extraction fails only when no page yields any text.
type Extractor struct {
	reader pageReader
	ocr    OCR
}

func NewExtractor() *Extractor {
	return &Extractor{reader: libReader{}}
}

func NewExtractorWithOCR(ocr OCR) *Extractor {
	return &Extractor{reader: libReader{}, ocr: ocr}
}

func (e *Extractor) Extract(ctx context.Context, filename string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", domain.ErrEmptyDocument
	}

	pages, err := e.reader.ReadPages(raw)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeNoExtractableText,
			fmt.Sprintf("failed to open %s as pdf", filename), err)
	}

	var b strings.Builder
	extracted := 0
	for i, text := range pages {
		pageNum := i + 1

		if strings.TrimSpace(text) == "" && e.ocr != nil {
			recognized, ocrErr := e.ocr.RecognizePage(ctx, raw, pageNum)
			if ocrErr != nil {
				log.Printf("ocr failed on page %d of %s: %v", pageNum, filename, ocrErr)
			} else {
				text = recognized
			}
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		fmt.Fprintf(&b, "\n--- Page %d ---\n", pageNum)
		b.WriteString(text)
		extracted++
	}

	if extracted == 0 {
		return "", domain.ErrNoExtractableText
	}
	return b.String(), nil
}

type libReader struct{}

func (libReader) ReadPages(raw []byte) ([]string, error) {
	r, err := lpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		// A single corrupt page must not abort the document.
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
