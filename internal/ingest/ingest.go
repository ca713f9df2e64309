// Package ingest turns raw documents into contract text.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFormat is returned for binary documents such as PDF or DOCX
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extractor converts one document format to plain text
type Extractor interface {
	// Name returns the extractor name
	Name() string

	// CanHandle checks if this extractor understands the document
	CanHandle(name, contentType string, data []byte) bool

	// Extract returns the document's visible text
	Extract(data []byte) (string, error)
}

// Registry picks an extractor for each document
type Registry struct {
	extractors []Extractor
	fallback   Extractor
}

// NewRegistry creates a registry with the built-in extractors
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewHTMLExtractor())
	r.fallback = NewTextExtractor()
	return r
}

// Register adds an extractor ahead of the plain-text fallback
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Find returns the first extractor that can handle the document
func (r *Registry) Find(name, contentType string, data []byte) Extractor {
	for _, e := range r.extractors {
		if e.CanHandle(name, contentType, data) {
			return e
		}
	}
	return r.fallback
}

// Text extracts normalized text from a document
func (r *Registry) Text(name, contentType string, data []byte) (string, error) {
	if isBinary(name, contentType, data) {
		return "", fmt.Errorf("%s: %w", displayName(name, contentType), ErrUnsupportedFormat)
	}
	text, err := r.Find(name, contentType, data).Extract(data)
	if err != nil {
		return "", err
	}
	return Normalize(text), nil
}

var binaryExtensions = []string{".pdf", ".doc", ".docx", ".odt", ".rtf", ".pages", ".zip"}

func isBinary(name, contentType string, data []byte) bool {
	lowerName := strings.ToLower(name)
	for _, ext := range binaryExtensions {
		if strings.HasSuffix(lowerName, ext) {
			return true
		}
	}
	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "application/pdf") || strings.Contains(ct, "officedocument") || strings.HasPrefix(ct, "application/msword") {
		return true
	}
	if bytes.HasPrefix(data, []byte("%PDF")) || bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.IndexByte(head, 0) >= 0
}

func displayName(name, contentType string) string {
	if name != "" {
		return name
	}
	if contentType != "" {
		return contentType
	}
	return "document"
}

// Normalize converts line endings, strips trailing spaces, collapses runs of
// blank lines to one, and replaces invalid UTF-8
func Normalize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\u00a0")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
