// Package normalize turns raw source records into canonical job postings:
// text cleanup, classification, salary and date parsing, apply-URL
// resolution, and the source-boundary relevance filters.
package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockElements = "br, p, div, li, ul, ol, tr, h1, h2, h3, h4, h5, h6, section, article"

// CollapseSpace trims s and collapses internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HTMLToText renders the visible text of an HTML fragment with block
// elements separated by whitespace. Plain text passes through unchanged
// apart from whitespace collapsing.
func HTMLToText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	if !strings.Contains(html, "<") {
		return CollapseSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CollapseSpace(html)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
		s.PrependHtml(" ")
	})
	return CollapseSpace(doc.Text())
}

// looksLikeHTML reports whether s carries markup rather than plain text.
func looksLikeHTML(s string) bool {
	i := strings.Index(s, "<")
	return i >= 0 && strings.Contains(s[i:], ">")
}
