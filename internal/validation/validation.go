// Package validation holds the pure input checks shared by the HTTP boundary
// and the pipelines. Both layers apply them independently so a caller that
// reaches a pipeline directly gets the same treatment as one coming through
// the router.
package validation

import (
	"regexp"
	"strings"
)

const (
	// MaxSanitizedLen bounds any free-text field after sanitization.
	MaxSanitizedLen = 10000

	minTranscriptLen  = 10
	maxTranscriptLen  = 50000
	maxInstructionLen = 500
	maxEmailLen       = 254
)

// emailShape is a shape filter, not a deliverability guarantee. It accepts
// strings a strict RFC 5322 parser would reject; downstream SMTP errors are
// reported per recipient.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SanitizeText trims whitespace, strips literal angle brackets and truncates
// to MaxSanitizedLen runes. This guards against the crudest injection only;
// output encoding remains the renderer's job.
func SanitizeText(input string) string {
	out := strings.TrimSpace(input)
	out = strings.ReplaceAll(out, "<", "")
	out = strings.ReplaceAll(out, ">", "")
	if runes := []rune(out); len(runes) > MaxSanitizedLen {
		out = string(runes[:MaxSanitizedLen])
	}
	return out
}

// IsValidEmail reports whether input looks like an email address.
func IsValidEmail(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || len([]rune(trimmed)) > maxEmailLen {
		return false
	}
	return emailShape.MatchString(trimmed)
}

// IsValidTranscriptLength requires a trimmed length strictly greater than 10
// and at most 50,000.
func IsValidTranscriptLength(input string) bool {
	n := len([]rune(strings.TrimSpace(input)))
	return n > minTranscriptLen && n <= maxTranscriptLen
}

// IsValidInstructionLength allows empty instructions and caps the trimmed
// length at 500.
func IsValidInstructionLength(input string) bool {
	return len([]rune(strings.TrimSpace(input))) <= maxInstructionLen
}
