package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	// a digit run right after "+" is a phone number, not a card
	cardRe  = regexp.MustCompile(`(^|[^+\w])(?:\d[ \-]?){12,18}\d\b`)
	phoneRe = regexp.MustCompile(`(?:\+|\b)\d[\d\s\-]{7,}\d\b`)
)

// SetEnabled toggles PII redaction.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when redaction is active.
func Enabled() bool {
	return enabled.Load()
}

// Text redacts emails, card numbers and phone numbers when enabled.
func Text(in string) string {
	if !enabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := emailRe.ReplaceAllString(in, "[REDACTED_EMAIL]")
	out = cardRe.ReplaceAllString(out, "${1}[REDACTED_CARD]")
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	return out
}

// Secret hides a value entirely (security answers, identifiers) when enabled.
func Secret(in string) string {
	if !enabled.Load() || in == "" {
		return in
	}
	return "[REDACTED]"
}

// Last4 keeps only the trailing four characters of an identifier when enabled.
func Last4(in string) string {
	in = strings.TrimSpace(in)
	if !enabled.Load() || len(in) <= 4 {
		return in
	}
	return strings.Repeat("*", len(in)-4) + in[len(in)-4:]
}
