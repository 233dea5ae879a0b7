// Package sanitize cleans raw article bodies before they reach a translator
// or summarization model.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	reCookieNotice = regexp.MustCompile(`If you click.*will also store and/or access information.*`)
	reNewlines     = regexp.MustCompile(`[\n\r]+`)
	reTags         = regexp.MustCompile(`<[^>]*>`)
	reCharsMarker  = regexp.MustCompile(`\[\+.?Ch.?\]`)
	reRemoved      = regexp.MustCompile(`\[Removed\]`)
	reTruncated    = regexp.MustCompile(`\[\+.?\d+ chars?\]`)
	reBareDomain   = regexp.MustCompile(`www\.\S+`)
	// "…" as UTF-8 and as its cp1252 mojibake.
	reTrailingEllipsis = regexp.MustCompile(`(\x{2026}|\x{00e2}\x{20ac}\x{00a6})\s*$`)
	reNonASCII         = regexp.MustCompile(`[^\x00-\x7F]+`)

	reLongDigits = regexp.MustCompile(`\b\d{10,}\b`)
	rePhone      = regexp.MustCompile(`\b\d{3}-\d{3}-\d{4}\b`)
	reURL        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	reUKPhone    = regexp.MustCompile(`\b08457 \d{2} \d{2} \d{2}\b`)

	reSpaces = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean strips boilerplate, markup, truncation markers, bare domains and
// non-ASCII bytes from s.
func Clean(s string) string {
	s = reCookieNotice.ReplaceAllString(s, "")
	s = reNewlines.ReplaceAllString(s, " ")
	s = reTags.ReplaceAllString(s, "")
	s = reCharsMarker.ReplaceAllString(s, "")
	s = reRemoved.ReplaceAllString(s, "")
	s = reTruncated.ReplaceAllString(s, "")
	s = reBareDomain.ReplaceAllString(s, "")
	s = reTrailingEllipsis.ReplaceAllString(s, "")
	s = reNonASCII.ReplaceAllString(s, "")
	return s
}

// StripContacts removes phone-number-like digit runs and URLs.
func StripContacts(s string) string {
	s = reLongDigits.ReplaceAllString(s, "")
	s = rePhone.ReplaceAllString(s, "")
	s = reURL.ReplaceAllString(s, "")
	s = reUKPhone.ReplaceAllString(s, "")
	return s
}

// ForSummary runs Clean and StripContacts and normalizes the leftover
// whitespace. The result is stable under repeated application.
func ForSummary(s string) string {
	prev := s
	for {
		next := normalize(StripContacts(Clean(prev)))
		if next == prev {
			return next
		}
		prev = next
	}
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
