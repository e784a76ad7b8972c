package logger

import (
	"regexp"
	"strings"
)

// secretParams are URL query parameters whose values must never be logged.
// The screenshot API carries its token in the query string, which is the
// main leak risk when request URLs are logged verbatim.
var secretParams = regexp.MustCompile(`(?i)([?&](?:token|key|api_key|apikey|access_token)=)[^&\s]+`)

// secretKeys marks log field names whose entire value is sensitive.
var secretKeys = []string{"token", "api_key", "apikey", "secret", "authorization", "bearer"}

// redactValue masks secrets in a log field. Fields named like credentials
// are masked whole; other fields get query-string token scrubbing.
func redactValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, k := range secretKeys {
		if strings.Contains(lower, k) {
			return MaskSecret(val)
		}
	}
	return RedactURL(val)
}

// RedactURL scrubs credential-bearing query parameters from a URL string,
// leaving the rest intact: "…?token=abc123&url=x" → "…?token=***&url=x".
func RedactURL(s string) string {
	return secretParams.ReplaceAllString(s, "${1}***")
}

// MaskSecret keeps a short identifying prefix and masks the remainder.
// "sk-proj-abcdef123456" → "sk-pro***". Values of 6 chars or fewer are
// fully masked.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "***"
	}
	return s[:6] + "***"
}
