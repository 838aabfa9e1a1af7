package common

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// NormalizeBookID normalizes a package document identifier into a stable
// document identity string.
//
// Publishers put anything into dc:identifier - bare UUIDs, urn:uuid: and
// urn:isbn: forms, ISBNs with dashes and spaces. We strip the urn prefix,
// canonicalize UUIDs to lower case and remove separators from ISBN-like
// values. Unrecognized identifiers are returned trimmed but otherwise
// untouched.
func NormalizeBookID(in string) string {
	s := strings.TrimSpace(in)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "urn:uuid:"):
		s = s[len("urn:uuid:"):]
	case strings.HasPrefix(lower, "urn:isbn:"):
		s = s[len("urn:isbn:"):]
	case strings.HasPrefix(lower, "isbn:"):
		s = s[len("isbn:"):]
	}

	if id, err := uuid.Parse(s); err == nil {
		return id.String()
	}

	if isbn, ok := normalizeISBN(s); ok {
		return isbn
	}
	return s
}

// normalizeISBN removes common separators and validates the basic ISBN-10 or
// ISBN-13 shape (digits with an optional 'X' check digit). No checksum
// verification - identity only has to be stable, not correct.
func normalizeISBN(in string) (string, bool) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '-' || unicode.IsSpace(r):
			return -1
		default:
			return r
		}
	}, in)
	s = strings.ToUpper(s)

	if len(s) != 10 && len(s) != 13 {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if c == 'X' && i == len(s)-1 && len(s) == 10 {
			continue
		}
		return "", false
	}
	return s, true
}
