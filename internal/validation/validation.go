// Package validation provides input validation and sanitization for the API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxMessageLength is the maximum length of a single chat message
const MaxMessageLength = 4000

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// phoneRegex matches phone-number-like tokens: optional +, then at least
	// 7 digits allowing spaces, dots, dashes and parens in between.
	phoneRegex = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{5,}\d`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// ExtractEmail returns the first email address found in text, or "".
func ExtractEmail(text string) string {
	return emailRegex.FindString(text)
}

// ExtractPhone returns the first phone-number-like token in text, or "".
// Requires at least 7 digits so plain numbers ("price is 49") don't match.
func ExtractPhone(text string) string {
	for _, candidate := range phoneRegex.FindAllString(text, -1) {
		digits := 0
		for _, r := range candidate {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 7 {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// ContainsContactInfo reports whether text carries an email or phone number.
func ContainsContactInfo(text string) bool {
	return ExtractEmail(text) != "" || ExtractPhone(text) != ""
}

// IsValidEmail checks that a string is a single well-formed email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && emailRegex.FindString(s) == s
}

// IsValidSlug checks tenant slugs (3-64 lowercase alphanumeric/hyphens).
func IsValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	// Trim whitespace
	s = strings.TrimSpace(s)

	// Limit length
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate validates a request and returns errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// ValidEmailField checks that an optional field, when set, is an email address.
func ValidEmailField(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidEmail(value) {
			return &ValidationError{Field: field, Message: "must be a valid email address"}
		}
		return nil
	}
}
