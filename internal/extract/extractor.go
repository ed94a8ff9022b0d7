// Package extract converts uploaded documents into plain text plus the
// descriptive metadata the analysis endpoints report (page count, author,
// creation and modification dates).
package extract

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrUnsupported reports a content type no extractor can handle.
var ErrUnsupported = errors.New("unsupported content type")

// Result is the outcome of a successful extraction.
type Result struct {
	Text         string
	PageCount    int
	Author       string
	CreatedAt    string
	LastModified string
}

// Extract reads r and returns the text representation of the content together
// with whatever metadata the format carries. Formats without page or author
// metadata (plain text, spreadsheets) leave those fields zero.
func Extract(contentType string, r io.Reader) (Result, error) {
	mime := strings.SplitN(contentType, ";", 2)[0]
	mime = strings.TrimSpace(strings.ToLower(mime))

	switch {
	case strings.HasPrefix(mime, "text/"):
		return extractText(r)
	case mime == mimePDF:
		return extractPDF(r)
	case mime == mimeDOCX:
		return extractDOCX(r)
	case mime == mimeXLSX:
		return extractXLSX(r)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
}

// ContentTypeFor maps a filename extension to the MIME type Extract expects.
// Unknown extensions map to application/octet-stream, which Extract rejects.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".xlsx":
		return mimeXLSX
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", ".log":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func extractText(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read text: %w", err)
	}
	return Result{Text: strings.TrimSpace(string(data))}, nil
}
