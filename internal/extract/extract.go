package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadableDocument is returned for every extraction failure. Callers
// get one stable error regardless of which internal stage broke, so the
// HTTP layer never leaks parser details to clients.
var ErrUnreadableDocument = errors.New("could not extract text from the document")

// Text pulls plain text out of a PDF payload. Password-protected,
// corrupted and image-only documents all surface as ErrUnreadableDocument.
func Text(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := extractPDF(data)
	if err != nil {
		return "", ErrUnreadableDocument
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrUnreadableDocument
	}
	return text, nil
}

// extractPDF wraps the pdf library behind a recover guard. The library
// panics on some malformed cross-reference tables.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("pdf parser panic")
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WordCount counts whitespace-separated tokens. Scoring heuristics and
// prompt budgets both key off this.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
