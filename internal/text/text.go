package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a filesystem and URL safe identifier from s.
// The result only contains [a-z0-9-], never starts or ends with a hyphen,
// and is empty when s has no letters or digits.
func Slugify(s string) string {
	lowered := strings.ToLower(s)

	// NFKD splits accented letters into base + combining mark so the mark
	// can be dropped.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, lowered)
	if err != nil {
		stripped = lowered
	}

	slug := nonSlugRun.ReplaceAllString(stripped, "-")
	return strings.Trim(slug, "-")
}

// SlugifyOr returns Slugify(s), or Slugify(fallback) when s yields nothing.
func SlugifyOr(s, fallback string) string {
	if slug := Slugify(s); slug != "" {
		return slug
	}
	return Slugify(fallback)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// EscapeQuote escapes s for use inside a double-quoted header value. Line
// breaks become escape sequences so a value always stays on one line.
func EscapeQuote(s string) string {
	return quoteEscaper.Replace(s)
}
