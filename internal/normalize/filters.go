package normalize

import (
	"regexp"
	"strings"

	"jobmate/listings-service/internal/model"
)

var relevantKeywords = []string{
	"intern", "internship", "summer", "vacation", "work experience",
	"placement", "year in industry", "sandwich", "industrial placement", "work placement",
	"graduate", "early careers", "new grad", "entry level", "junior", "trainee",
}

var seniorKeywords = []string{
	"senior", "principal", "lead", "head of", "director", "manager", "vp", "vice president",
	"executive", "ceo", "cto", "cfo", "coo", "founder", "co-founder",
	"5+ years", "10+ years", "15+ years", "20+ years",
	"experienced", "expert", "specialist", "consultant", "architect",
	"mid-level", "mid level", "intermediate", "advanced",
}

var ukKeywords = []string{
	"united kingdom", "uk", "britain", "british", "gb",
	"london", "manchester", "birmingham", "leeds", "glasgow", "edinburgh",
	"bristol", "liverpool", "newcastle", "sheffield", "belfast", "cardiff",
	"cambridge", "oxford", "bath", "york", "canterbury", "durham", "nottingham", "reading",
	"england", "scotland", "wales", "northern ireland",
}

var nonUKKeywords = []string{
	"united states", "usa", "us", "america", "american",
	"canada", "canadian", "toronto", "vancouver", "montreal",
	"australia", "australian", "sydney", "melbourne",
	"germany", "german", "berlin", "munich",
	"france", "french", "paris", "lyon",
	"netherlands", "dutch", "amsterdam", "rotterdam",
	"singapore", "singaporean",
}

var (
	relevantRe = keywordRegexp(relevantKeywords)
	seniorRe   = keywordRegexp(seniorKeywords)
	ukRe       = keywordRegexp(ukKeywords)
	nonUKRe    = keywordRegexp(nonUKKeywords)
)

// keywordRegexp matches any keyword as a whole word, optionally pluralised,
// so "us" does not fire inside "business".
func keywordRegexp(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(^|[^a-z0-9])(` + strings.Join(quoted, "|") + `)s?($|[^a-z0-9])`)
}

// IsRelevantJobType reports whether text describes an early-careers role:
// at least one entry-level keyword and no seniority keyword.
func IsRelevantJobType(text string) bool {
	t := strings.ToLower(text)
	return relevantRe.MatchString(t) && !seniorRe.MatchString(t)
}

// IsUKJob reports whether text places the role in the UK and nowhere else.
func IsUKJob(text string) bool {
	t := strings.ToLower(text)
	return ukRe.MatchString(t) && !nonUKRe.MatchString(t)
}

// Accept applies the source-boundary filters to a normalized posting. The
// reason is empty when the posting is kept.
func Accept(job *model.Job) (bool, string) {
	text := job.Title + " " + job.DescriptionText + " " + job.Location
	if !IsRelevantJobType(text) {
		return false, "not-early-careers"
	}
	if !IsUKJob(text) {
		return false, "not-uk"
	}
	return true, ""
}
