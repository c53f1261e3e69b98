// Package redact strips credentials, tokens, SQL text and file paths from
// strings before they are logged. Error responses never carry raw errors,
// so redaction only guards the logs.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	StackTracePlaceholder = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules run in order; later rules see the output of earlier ones.
var rules = []rule{
	{
		pattern:     regexp.MustCompile(`(?:goroutine \d+ \[|panic: )[\s\S]*`),
		replacement: StackTracePlaceholder,
	},
	{
		// user:password in postgres:// and redis:// URLs
		pattern:     regexp.MustCompile(`(?i)\b(postgres(?:ql)?|rediss?)://[^@\s/]+@`),
		replacement: "${1}://" + CredentialPlaceholder + "@",
	},
	{
		pattern:     regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
		replacement: JWTPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`),
		replacement: "Bearer " + TokenPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(password|passwd|secret|api[_-]?key|jwt_secret)\s*[=:]\s*[^\s&"',]+`),
		replacement: "${1}=" + CredentialPlaceholder,
	},
	{
		// Upper-case keywords only, so messages such as "update failed" survive.
		pattern:     regexp.MustCompile(`\b(?:SELECT|INSERT INTO|UPDATE|DELETE FROM)\b[^;]*`),
		replacement: SQLPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`(?:/[\w.-]+){2,}`),
		replacement: PathPlaceholder,
	},
}

// String returns s with sensitive fragments replaced by placeholders.
func String(s string) string {
	if s == "" {
		return s
	}
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// Error returns the redacted message of err, or "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
