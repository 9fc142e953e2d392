package address

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Domain returns the part after the @, or "" unless email holds exactly one
// @ with text on both sides.
func Domain(email string) string {
	_, domain, ok := split(email)
	if !ok {
		return ""
	}
	return domain
}

// MatchesDomain reports whether two addresses share a domain. The test is
// deliberately loose: one domain only has to contain the other, ignoring
// case, so "mg.example.com" matches "example.com". A missing domain matches
// anything.
func MatchesDomain(a, b string) bool {
	d1 := strings.ToLower(Domain(a))
	d2 := strings.ToLower(Domain(b))
	if len(d1) > len(d2) {
		return strings.Contains(d1, d2)
	}
	return strings.Contains(d2, d1)
}

// CheckCharCount reports whether text is between min and max characters
// long and still has at least min characters once whitespace is removed.
func CheckCharCount(text string, min, max int) bool {
	n := utf8.RuneCountInString(text)
	if n < min || n > max {
		return false
	}

	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	return utf8.RuneCountInString(stripped) >= min
}

// CountRecipients estimates the recipients of a message from its extra
// headers: sender and primary recipient plus one per @ in the headers.
func CountRecipients(headers []string) int {
	n := 2
	for _, h := range headers {
		n += strings.Count(h, "@")
	}
	return n
}

// StripTags removes markup from s, keeping only text content.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}
