// Package redact strips sensitive information from strings before they are
// logged or echoed in error responses: connection strings, credentials,
// JWT tokens, file paths and raw SQL from wrapped database errors.
package redact

import "regexp"

// Redaction placeholders.
const (
	PlaceholderCredential = "[REDACTED_CREDENTIAL]"
	PlaceholderKey        = "[REDACTED_KEY]"
	PlaceholderJWT        = "[REDACTED_JWT]"
	PlaceholderPath       = "[REDACTED_PATH]"
	PlaceholderSQL        = "[REDACTED_SQL]"
	PlaceholderHost       = "[REDACTED_HOST]"
)

var rules = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	// Database connection strings with embedded credentials.
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`), PlaceholderCredential},

	// Password-like key=value fragments.
	{regexp.MustCompile(`(?i)(password|passwd|secret)([=:\s]['"]?)[^'"&\s]{3,}`), PlaceholderCredential},

	// API keys and tokens.
	{regexp.MustCompile(`(?i)(api[_-]?key|token|bearer)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), PlaceholderKey},

	// Three-part base64url JWT tokens.
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), PlaceholderJWT},

	// Absolute unix paths.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), PlaceholderPath},

	// SQL fragments surfacing from wrapped driver errors.
	{regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE)[\s\w,*()=$]+(FROM|INTO|SET|WHERE)[\s\w,*()='"$]*`), PlaceholderSQL},

	// host:port pairs.
	{regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}:\d{1,5}\b`), PlaceholderHost},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, rule := range rules {
		result = rule.pattern.ReplaceAllString(result, rule.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
