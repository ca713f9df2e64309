package ingest

// TextExtractor passes plain text through unchanged
type TextExtractor struct{}

// NewTextExtractor creates a new plain-text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Name returns the extractor name
func (e *TextExtractor) Name() string {
	return "text"
}

// CanHandle always returns true (fallback extractor)
func (e *TextExtractor) CanHandle(name, contentType string, data []byte) bool {
	return true
}

// Extract returns data as a string
func (e *TextExtractor) Extract(data []byte) (string, error) {
	return string(data), nil
}
