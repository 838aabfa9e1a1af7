// Package text provides small text utilities shared by the session engine
// and the footnote controller: whitespace normalization, sentence aware
// truncation and a path trie for key matching.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CollapseWhitespace trims the string and replaces every whitespace run with
// a single space. Text pulled out of a document tree keeps source formatting
// (indentation, hard wraps inside paragraphs) which must not survive in
// single line UI surfaces.
func CollapseWhitespace(in string) string {
	var (
		b       strings.Builder
		inSpace bool
	)
	b.Grow(len(in))
	for _, r := range in {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeText collapses whitespace and brings the result to NFC form.
func NormalizeText(in string) string {
	return norm.NFC.String(CollapseWhitespace(in))
}
