package tabular

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var headerCaser = cases.Fold()

// NormalizeHeader canonicalizes a column header for mapping lookups: leading
// and trailing whitespace is trimmed, the name is case-folded, and internal
// whitespace is stripped. "Invoice No" and " invoiceno " normalize to the
// same key, which protects against header drift between manifest revisions.
func NormalizeHeader(name string) string {
	folded := headerCaser.String(strings.TrimSpace(name))
	if folded == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
