package csvimport

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

var headerReplacer = strings.NewReplacer(
	`"`, "",
	`'`, "",
	"_", " ",
	"-", " ",
	".", " ",
	"#", "",
)

// NormalizeHeader reduces a raw CSV header to the comparable form used by the
// alias table: lower-cased, quotes and "#" stripped, separators converted to
// single spaces, diacritics removed.
func NormalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = headerReplacer.Replace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripDiacritics decomposes to NFD and drops combining marks, so headers like
// "Año" compare equal to "Ano".
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
