package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor pulls visible text out of HTML documents.
// Block elements become line breaks so clause numbering stays at line start.
type HTMLExtractor struct {
	skip  map[string]bool
	block map[string]bool
}

// NewHTMLExtractor creates a new HTML extractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{
		skip: map[string]bool{
			"script": true, "style": true, "noscript": true, "iframe": true,
			"nav": true, "header": true, "footer": true, "svg": true, "template": true,
			"head": true,
		},
		block: map[string]bool{
			"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
			"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
			"section": true, "article": true, "main": true, "tr": true, "table": true,
			"blockquote": true, "pre": true, "dd": true, "dt": true, "hr": true,
		},
	}
}

// Name returns the extractor name
func (e *HTMLExtractor) Name() string {
	return "html"
}

// CanHandle checks the content type, the file extension, then the first bytes
func (e *HTMLExtractor) CanHandle(name, contentType string, data []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(data))
	if len(head) > 256 {
		head = head[:256]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// Extract returns the text of <article> or <main> when present, else <body>
func (e *HTMLExtractor) Extract(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.Data == "article" || n.Data == "main")
	})
	if root == nil {
		root = findFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "body"
		})
	}
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	e.walk(root, &buf)
	return buf.String(), nil
}

func (e *HTMLExtractor) walk(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode && e.skip[n.Data] {
		return
	}

	if n.Type == html.TextNode {
		text := strings.Join(strings.Fields(n.Data), " ")
		if text != "" {
			if buf.Len() > 0 && !endsWithSpace(buf.String()) {
				buf.WriteString(" ")
			}
			buf.WriteString(text)
		}
		return
	}

	isBlock := n.Type == html.ElementNode && e.block[n.Data]
	if isBlock {
		buf.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c, buf)
	}
	if isBlock {
		buf.WriteString("\n")
	}
}

func endsWithSpace(s string) bool {
	return strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
}

// findFirst finds the first node matching a predicate, depth first
func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}
