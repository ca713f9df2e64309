// Package validate checks input at the boundary before it reaches the engine.
// The engine itself accepts any text.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/clauselens/internal/model"
)

var (
	ErrEmptyText    = errors.New("contract text is empty")
	ErrTextTooShort = errors.New("contract text is too short")
	ErrTextTooLong  = errors.New("contract text is too long")
	ErrMissingField = errors.New("missing required field")
	ErrInvalidURL   = errors.New("invalid contract URL")
)

// Validator enforces text length limits
type Validator struct {
	minChars int
	maxChars int
}

// NewValidator creates a validator; a zero bound disables that check
func NewValidator(minChars, maxChars int) *Validator {
	return &Validator{minChars: minChars, maxChars: maxChars}
}

// FromConfig builds a validator from the limits section
func FromConfig(cfg model.LimitsConfig) *Validator {
	return NewValidator(cfg.MinChars, cfg.MaxChars)
}

// Text checks a contract body. Length is counted in characters after trimming.
func (v *Validator) Text(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyText
	}

	n := utf8.RuneCountInString(trimmed)
	if v.minChars > 0 && n < v.minChars {
		return fmt.Errorf("%w: %d characters, minimum is %d", ErrTextTooShort, n, v.minChars)
	}
	if v.maxChars > 0 && n > v.maxChars {
		return fmt.Errorf("%w: %d characters, maximum is %d", ErrTextTooLong, n, v.maxChars)
	}
	return nil
}

// Pair checks both sides of a comparison, naming the failing side
func (v *Validator) Pair(first, second string) error {
	if err := v.Text(first); err != nil {
		return fmt.Errorf("first contract: %w", err)
	}
	if err := v.Text(second); err != nil {
		return fmt.Errorf("second contract: %w", err)
	}
	return nil
}

// Required fails with ErrMissingField when value is blank
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return nil
}

// URL accepts absolute http and https URLs
func URL(raw string) error {
	if err := Required("url", raw); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return nil
}

// IsInputError reports whether err is a validation failure (HTTP 400, exit code 2)
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrTextTooShort) ||
		errors.Is(err, ErrTextTooLong) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidURL)
}
