package helpers

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a singleton bluemonday policy that strips every
// HTML element and attribute, leaving only text content.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// NormalizeText strips markup from s, decodes HTML entities and collapses
// every whitespace run to a single space. Empty input yields an empty
// string; malformed markup is handled best-effort, never an error.
func NormalizeText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	plain := StrictHTMLPolicy().Sanitize(s)
	plain = html.UnescapeString(plain)
	return strings.Join(strings.Fields(plain), " ")
}
