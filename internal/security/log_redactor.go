// Package security keeps API keys out of logs and transcripts.
package security

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces anything that looks like a credential.
const RedactedPlaceholder = "[REDACTED_KEY]"

// sensitivePatterns match vendor key formats. More specific prefixes come first.
var sensitivePatterns = []*regexp.Regexp{
	// Anthropic: sk-ant-...
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`),
	// OpenAI and Together style: sk-...
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	// Google AI: AIza...
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),
	// Groq: gsk_...
	regexp.MustCompile(`gsk_[a-zA-Z0-9]{20,}`),
	// HuggingFace: hf_...
	regexp.MustCompile(`hf_[a-zA-Z0-9]{20,}`),
	// Bearer tokens in header dumps
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]{20,}`),
	// Keys in query strings: key=... or api_key=...
	regexp.MustCompile(`(?i)(api_?)?key=[a-zA-Z0-9_-]{20,}`),
	// Long opaque strings (64-char hex digests are let through, see Redact)
	regexp.MustCompile(`[a-zA-Z0-9_-]{40,}`),
}

var hexDigest = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Redact scans a string for credential-shaped text and replaces it.
func Redact(s string) string {
	if s == "" {
		return s
	}
	result := s
	for i, pattern := range sensitivePatterns {
		if i == len(sensitivePatterns)-1 {
			result = pattern.ReplaceAllStringFunc(result, func(m string) string {
				if hexDigest.MatchString(m) {
					return m
				}
				return RedactedPlaceholder
			})
			continue
		}
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// MaskKey shows just enough of a key to tell keys apart: "sk-a...wxyz".
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 12 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// RedactedHandler wraps an slog.Handler and redacts sensitive data from log records.
type RedactedHandler struct {
	inner slog.Handler
}

// NewRedactedHandler wraps inner so every record is scrubbed before it is written.
func NewRedactedHandler(inner slog.Handler) *RedactedHandler {
	return &RedactedHandler{inner: inner}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the message and every attribute, groups included.
func (h *RedactedHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *RedactedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactedHandler{inner: h.inner.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactedHandler) WithGroup(name string) slog.Handler {
	return &RedactedHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactedPlaceholder)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Redact(v.String()))
	case slog.KindGroup:
		group := v.Group()
		redacted := make([]any, len(group))
		for i, g := range group {
			redacted[i] = redactAttr(g)
		}
		return slog.Group(a.Key, redacted...)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return slog.String(a.Key, Redact(x.Error()))
		case []string:
			out := make([]string, len(x))
			for i, s := range x {
				out[i] = Redact(s)
			}
			return slog.Any(a.Key, out)
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// isSensitiveKey reports whether an attribute name is known to carry a credential.
// Separators and case are ignored, so "x-api-key" and "apiKey" both match.
// Counters such as "total_tokens" do not match.
func isSensitiveKey(key string) bool {
	k := strings.ToLower(strings.NewReplacer("_", "", "-", "", ".", "").Replace(key))

	switch k {
	case "authorization", "bearer", "credential", "credentials", "xgoogapikey":
		return true
	}
	for _, suffix := range []string{"apikey", "secret", "password", "token"} {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}
