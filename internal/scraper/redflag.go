// Package scraper polls the upstream job boards and pushes cleaned,
// fingerprinted batches to a sink.
package scraper

import "strings"

// ContainsRedFlag reports whether a posting mentions one of the operator's
// SCRAPE_RED_FLAGS terms. Matching is a case-insensitive substring test over
// title, company and description; blank terms never match.
func ContainsRedFlag(title, company, description string, redFlags []string) bool {
	if len(redFlags) == 0 {
		return false
	}
	combined := strings.ToLower(title + " " + company + " " + description)
	for _, flag := range redFlags {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(flag)) {
			return true
		}
	}
	return false
}
