package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var deadlineSelectors = strings.Join([]string{
	`[class*="deadline"]`, `[class*="closing"]`, `[class*="expires"]`, `[class*="expiry"]`,
	`[class*="apply-by"]`, `[class*="end-date"]`, `[class*="due-date"]`,
	`[id*="deadline"]`, `[id*="closing"]`, `[id*="expires"]`, `[id*="expiry"]`,
}, ", ")

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december`

var deadlineRe = regexp.MustCompile(`(?i)(?:application deadline|deadline|closing date|closing|apply by|expires|expiry|end date|due|valid until|open until)[:\s]+` +
	`(\d{1,2}(?:st|nd|rd|th)?\s+(?:` + monthNames + `)\s+\d{4}|\d{1,2}[/.\-]\d{1,2}[/.\-]\d{4}|\d{4}-\d{1,2}-\d{1,2})`)

var (
	dayMonthNameRe = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthNames + `)\s+(\d{4})$`)
	dayMonthYearRe = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	isoDateRe      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

// ExtractDeadline looks for an application deadline in an HTML (or plain
// text) description: first inside deadline-ish elements, then anywhere in
// the text. The deadline is the end of that day in loc.
func ExtractDeadline(html string, loc *time.Location) *time.Time {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if !looksLikeHTML(html) {
		return deadlineFromText(html, loc)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return deadlineFromText(html, loc)
	}

	var found *time.Time
	doc.Find(deadlineSelectors).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = deadlineFromText(s.Text(), loc)
		return found == nil
	})
	if found != nil {
		return found
	}
	return deadlineFromText(HTMLToText(html), loc)
}

func deadlineFromText(text string, loc *time.Location) *time.Time {
	m := deadlineRe.FindStringSubmatch(CollapseSpace(text))
	if m == nil {
		return nil
	}
	return parseDeadlineDate(m[1], loc)
}

func parseDeadlineDate(s string, loc *time.Location) *time.Time {
	var day, month, year int
	switch {
	case dayMonthNameRe.MatchString(s):
		m := dayMonthNameRe.FindStringSubmatch(s)
		day, _ = strconv.Atoi(m[1])
		month = monthIndex(m[2])
		year, _ = strconv.Atoi(m[3])
	case dayMonthYearRe.MatchString(s):
		m := dayMonthYearRe.FindStringSubmatch(s)
		day, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		year, _ = strconv.Atoi(m[3])
	case isoDateRe.MatchString(s):
		m := isoDateRe.FindStringSubmatch(s)
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
	default:
		return nil
	}

	if year < 2000 || month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 23, 59, 59, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return nil // e.g. 31/02
	}
	t = t.UTC()
	return &t
}

func monthIndex(name string) int {
	for i, m := range strings.Split(monthNames, "|") {
		if strings.EqualFold(m, name) {
			return i + 1
		}
	}
	return 0
}
