package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/clauselens/internal/ingest"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/share"
	"github.com/ppiankov/clauselens/internal/templates"
	"github.com/ppiankov/clauselens/internal/usage"
	"github.com/ppiankov/clauselens/internal/validate"
)

type errorResponse struct {
	Error string `json:"error"`
}

type analyzeRequest struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

type analyzeResponse struct {
	Report    *model.Report `json:"report"`
	Remaining *int          `json:"remaining,omitempty"`
}

type compareRequest struct {
	TextA   string `json:"text_a"`
	TextB   string `json:"text_b"`
	SourceA string `json:"source_a"`
	SourceB string `json:"source_b"`
}

type compareResponse struct {
	Report    *model.ComparisonReport `json:"report"`
	Remaining *int                    `json:"remaining,omitempty"`
}

type shareRequest struct {
	Report *model.Report `json:"report"`
}

type shareResponse struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at"`
}

type usageResponse struct {
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Metered   bool `json:"metered"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"templates": s.templates.Len(),
	})
}

// handleAnalyze analyzes pasted text or a contract URL
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if !s.bind(c, &req) {
		return
	}

	var (
		doc       pipeline.Document
		remaining *int
		ok        bool
	)
	switch {
	case strings.TrimSpace(req.Text) != "":
		doc = pipeline.Document{Source: sourceOr(req.Source, "pasted text"), Kind: model.SourceText, Text: req.Text}
		if err := s.pipeline.Validator().Text(doc.Text); err != nil {
			s.fail(c, err)
			return
		}
		if remaining, ok = s.consume(c); !ok {
			return
		}
	case req.URL != "":
		if err := validate.URL(req.URL); err != nil {
			s.fail(c, err)
			return
		}
		// A fetch is charged up front, whether or not the page turns out to be a contract
		if remaining, ok = s.consume(c); !ok {
			return
		}
		loaded, err := s.pipeline.LoadURL(c.Request.Context(), req.URL)
		if err != nil {
			s.fail(c, err)
			return
		}
		if err := s.pipeline.Validator().Text(loaded.Text); err != nil {
			s.fail(c, err)
			return
		}
		doc = loaded
	default:
		s.fail(c, validate.Required("text or url", ""))
		return
	}

	report, err := s.pipeline.AnalyzeDocument(c.Request.Context(), doc)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analyzeResponse{Report: report, Remaining: remaining})
}

// handleCompare compares two pasted contracts; it counts as one analysis
func (s *Server) handleCompare(c *gin.Context) {
	var req compareRequest
	if !s.bind(c, &req) {
		return
	}

	a := pipeline.Document{Source: sourceOr(req.SourceA, "first contract"), Kind: model.SourceText, Text: req.TextA}
	b := pipeline.Document{Source: sourceOr(req.SourceB, "second contract"), Kind: model.SourceText, Text: req.TextB}
	if err := s.pipeline.Validator().Pair(a.Text, b.Text); err != nil {
		s.fail(c, err)
		return
	}
	remaining, ok := s.consume(c)
	if !ok {
		return
	}

	report, err := s.pipeline.CompareDocuments(a, b)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, compareResponse{Report: report, Remaining: remaining})
}

// handleUsage reports the caller's remaining free analyses
func (s *Server) handleUsage(c *gin.Context) {
	if !s.meter.Enabled() {
		c.JSON(http.StatusOK, usageResponse{Remaining: -1})
		return
	}
	c.JSON(http.StatusOK, usageResponse{
		Limit:     s.meter.Limit(),
		Remaining: s.meter.Remaining(c.ClientIP()),
		Metered:   true,
	})
}

// handleListTemplates lists templates, optionally filtered by ?category=
func (s *Server) handleListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"templates":  s.templates.List(c.Query("category")),
		"categories": s.templates.Categories(),
	})
}

// handleGetTemplate returns one template with its text
func (s *Server) handleGetTemplate(c *gin.Context) {
	tpl, err := s.templates.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// handleAnalyzeTemplate analyzes a sample contract; templates are not metered
func (s *Server) handleAnalyzeTemplate(c *gin.Context) {
	tpl, err := s.templates.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	report, err := s.pipeline.AnalyzeText(c.Request.Context(), "template:"+tpl.ID, model.SourceTemplate, tpl.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analyzeResponse{Report: report})
}

// handleCreateShare stores a report and returns its share ID
func (s *Server) handleCreateShare(c *gin.Context) {
	var req shareRequest
	if !s.bind(c, &req) {
		return
	}

	entry, err := s.shares.Save(req.Report)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, shareResponse{
		ID:        entry.ID,
		Path:      "/api/v1/share/" + entry.ID,
		ExpiresAt: entry.ExpiresAt,
	})
}

// handleGetShare returns a shared report
func (s *Server) handleGetShare(c *gin.Context) {
	entry, err := s.shares.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// bind decodes a size-capped JSON body
func (s *Server) bind(c *gin.Context, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// consume charges one free analysis and sets X-Free-Remaining
func (s *Server) consume(c *gin.Context) (*int, bool) {
	if !s.meter.Enabled() {
		return nil, true
	}
	remaining, err := s.meter.Consume(c.ClientIP())
	if err != nil {
		s.metrics.QuotaRejected()
		s.fail(c, err)
		return nil, false
	}
	c.Header("X-Free-Remaining", strconv.Itoa(remaining))
	return &remaining, true
}

// fail maps an error to a status code and aborts
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("request error")
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case validate.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, usage.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, templates.ErrNotFound), errors.Is(err, share.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, share.ErrInvalidReport):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, pipeline.ErrDisallowedByRobots), errors.Is(err, pipeline.ErrBlockedAddress):
		return http.StatusForbidden
	case strings.HasPrefix(err.Error(), "fetch: "):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sourceOr(source, fallback string) string {
	if s := strings.TrimSpace(source); s != "" {
		return s
	}
	return fallback
}
