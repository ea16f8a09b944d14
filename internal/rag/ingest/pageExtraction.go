package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

type rawPage struct {
	number  int
	content string
}

var errUnsupportedFormat = errors.New("unsupported document format")

// extractText dispatches on the file extension. PDFs keep real page
// numbers; the other formats come back as a single page 1.
func extractText(path string) ([]rawPage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx", ".odt", ".rtf", ".txt", ".md":
		return extractFlat(path)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, filepath.Ext(path))
	}
}

func extractPDF(path string) ([]rawPage, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	var pages []rawPage
	for i := 1; i <= f.NumPage(); i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := protectExtract(page)
		if err != nil {
			// Broken pages are skipped, not fatal.
			continue
		}
		pages = append(pages, rawPage{number: i, content: content})
	}
	return pages, nil
}

// extractFlat reads a .docx, .odt, .rtf or plaintext file. These formats
// carry no page structure, so everything lands on page 1.
func extractFlat(path string) ([]rawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("extracting document text: %w", err)
	}
	return []rawPage{{number: 1, content: text}}, nil
}

// protectExtract guards against pathological PDFs that make the parser
// spin. One page gets at most ten seconds.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timed out")
	}
}
