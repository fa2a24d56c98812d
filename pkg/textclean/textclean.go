// Package textclean normalizes free text taken from feeds before scoring or display.
package textclean

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Clean collapses every run of whitespace into a single space and trims the result.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripHTML reduces an HTML fragment to its visible text and cleans it.
// Plain text passes through unchanged apart from whitespace normalization.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return Clean(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return Clean(s)
	}
	doc.Find("script, style").Remove()

	// Block-level siblings would otherwise run together without a separator.
	doc.Find("br, p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})

	return Clean(doc.Text())
}

// Truncate shortens s to at most max whitespace-delimited tokens.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) <= max {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:max], " ")
}
