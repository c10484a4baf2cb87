package util

import (
	"strings"
	"testing"
)

func TestRedactSecrets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain message untouched", "pipeline error: title not found", "pipeline error: title not found"},
		{"bearer token", `request failed: Bearer eyJhbGciOi.abc.def rejected`, "request failed: Bearer <redacted> rejected"},
		{"gemini key kv", "config: gemini_api_key=AIzaSyXXXX invalid", "config: <redacted_kv> invalid"},
		{"brave key kv", "config: brave-api-key: BSAxxxx rejected", "config: <redacted_kv> rejected"},
		{"subscription token header", "header x-subscription-token=abc123 leaked", "header <redacted_kv> leaked"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := RedactSecrets(tc.in)
			if got != tc.want {
				t.Fatalf("RedactSecrets(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if strings.Contains(got, "AIzaSy") || strings.Contains(got, "BSAxxxx") {
				t.Fatalf("secret survived redaction: %q", got)
			}
		})
	}
}
