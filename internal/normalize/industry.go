package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// Industries is the closed set of industry tags a posting may carry.
var Industries = []string{
	"Accounting & Finance", "Aerospace & Defence", "Agriculture & Farming", "Architecture",
	"Automotive", "Banking & Investment", "Biotechnology", "Chemical Engineering",
	"Civil Engineering", "Consulting", "Construction", "Creative & Design", "Cybersecurity",
	"Data Science & Analytics", "Education & Training", "Electrical Engineering",
	"Energy & Utilities", "Engineering (General)", "Entertainment & Media", "Environmental",
	"Fashion & Textiles", "Food & Beverage", "Government & Public Sector",
	"Healthcare & Medical", "Hospitality & Tourism", "HR & Recruitment", "Insurance",
	"IT & Software", "Law & Legal", "Logistics & Supply Chain", "Manufacturing",
	"Marketing & Advertising", "Mechanical Engineering", "Mining & Resources",
	"Non-Profit & Charity", "Oil & Gas", "Pharmaceuticals", "Property & Real Estate",
	"Retail", "Sales", "Science & Research", "Social Care", "Sports & Fitness",
	"Technology", "Telecommunications", "Transport", "Water & Waste Management",
}

type hintRule struct {
	keyword  string
	industry string
	score    float64
}

type patternRule struct {
	pattern  *regexp.Regexp
	industry string
	score    float64
}

// hintRules score source-provided category strings (department, team, tags).
var hintRules = []hintRule{
	{"account", "Accounting & Finance", 3}, {"finance", "Accounting & Finance", 3},
	{"actuarial", "Accounting & Finance", 3}, {"bank", "Banking & Investment", 4},
	{"investment", "Banking & Investment", 4}, {"trading", "Banking & Investment", 3},
	{"aerospace", "Aerospace & Defence", 4}, {"defence", "Aerospace & Defence", 4},
	{"defense", "Aerospace & Defence", 4}, {"agric", "Agriculture & Farming", 4},
	{"farming", "Agriculture & Farming", 4}, {"architect", "Architecture", 4},
	{"automotive", "Automotive", 4}, {"vehicle", "Automotive", 3}, {"motorsport", "Automotive", 3},
	{"biotech", "Biotechnology", 4}, {"biolog", "Biotechnology", 3},
	{"chemical engineering", "Chemical Engineering", 5}, {"civil engineering", "Civil Engineering", 5},
	{"mechanical engineering", "Mechanical Engineering", 5},
	{"electrical engineering", "Electrical Engineering", 5},
	{"consult", "Consulting", 4}, {"construction", "Construction", 4},
	{"creative", "Creative & Design", 3}, {"design", "Creative & Design", 3},
	{"cyber", "Cybersecurity", 5}, {"security", "Cybersecurity", 3},
	{"data", "Data Science & Analytics", 4}, {"analytics", "Data Science & Analytics", 4},
	{"education", "Education & Training", 4}, {"teacher", "Education & Training", 4},
	{"energy", "Energy & Utilities", 4}, {"utilities", "Energy & Utilities", 3},
	{"environment", "Environmental", 4}, {"sustainab", "Environmental", 4},
	{"fashion", "Fashion & Textiles", 4}, {"textile", "Fashion & Textiles", 4},
	{"food", "Food & Beverage", 3}, {"beverage", "Food & Beverage", 3},
	{"public sector", "Government & Public Sector", 4}, {"government", "Government & Public Sector", 4},
	{"health", "Healthcare & Medical", 4}, {"medical", "Healthcare & Medical", 4},
	{"hospitality", "Hospitality & Tourism", 4}, {"tourism", "Hospitality & Tourism", 4},
	{"human resources", "HR & Recruitment", 4}, {"hr", "HR & Recruitment", 4},
	{"recruit", "HR & Recruitment", 4}, {"insurance", "Insurance", 4},
	{"legal", "Law & Legal", 4}, {"law", "Law & Legal", 4},
	{"logistics", "Logistics & Supply Chain", 4}, {"supply chain", "Logistics & Supply Chain", 4},
	{"manufactur", "Manufacturing", 4}, {"marketing", "Marketing & Advertising", 4},
	{"advertis", "Marketing & Advertising", 4}, {"mining", "Mining & Resources", 4},
	{"non-profit", "Non-Profit & Charity", 4}, {"charity", "Non-Profit & Charity", 4},
	{"oil", "Oil & Gas", 4}, {"gas", "Oil & Gas", 4},
	{"pharma", "Pharmaceuticals", 4}, {"drug", "Pharmaceuticals", 3},
	{"real estate", "Property & Real Estate", 4}, {"property", "Property & Real Estate", 4},
	{"retail", "Retail", 4}, {"sales", "Sales", 4}, {"business development", "Sales", 4},
	{"science", "Science & Research", 4}, {"research", "Science & Research", 4},
	{"social care", "Social Care", 5}, {"social work", "Social Care", 5},
	{"sport", "Sports & Fitness", 4}, {"fitness", "Sports & Fitness", 4},
	{"software", "IT & Software", 4}, {"developer", "IT & Software", 4},
	{"tech", "Technology", 3}, {"product management", "Technology", 3},
	{"telecom", "Telecommunications", 4}, {"transport", "Transport", 4}, {"rail", "Transport", 4},
	{"water", "Water & Waste Management", 4}, {"waste", "Water & Waste Management", 4},
	{"engineering", "Engineering (General)", 2},
	{"entertainment", "Entertainment & Media", 3}, {"media", "Entertainment & Media", 3},
}

func pattern(expr, industry string, score float64) patternRule {
	return patternRule{regexp.MustCompile(expr), industry, score}
}

// patternRules are strong role-title signals matched against the full text.
var patternRules = []patternRule{
	pattern(`\binvestment bank(ing)?\b`, "Banking & Investment", 6),
	pattern(`\basset management\b`, "Banking & Investment", 5),
	pattern(`\bhedge fund\b`, "Banking & Investment", 6),
	pattern(`\bportfolio (analyst|manager)\b`, "Banking & Investment", 5),
	pattern(`\baccount(ant|ing)\b`, "Accounting & Finance", 5),
	pattern(`\bauditor\b`, "Accounting & Finance", 5),
	pattern(`\bfinancial reporting\b`, "Accounting & Finance", 5),
	pattern(`\bcivil engineer`, "Civil Engineering", 7),
	pattern(`\bstructural engineer`, "Civil Engineering", 6),
	pattern(`\bmechanical engineer`, "Mechanical Engineering", 7),
	pattern(`\belectrical engineer`, "Electrical Engineering", 7),
	pattern(`\bchemical engineer`, "Chemical Engineering", 7),
	pattern(`\bsoftware engineer`, "IT & Software", 6),
	pattern(`\b(full|front|back)[- ]?(stack|end) developer\b`, "IT & Software", 6),
	pattern(`\bdevops\b`, "IT & Software", 6),
	pattern(`\bdata scientist\b`, "Data Science & Analytics", 7),
	pattern(`\bmachine learning\b`, "Data Science & Analytics", 6),
	pattern(`\bcyber ?security\b`, "Cybersecurity", 7),
	pattern(`\bpenetration tester\b`, "Cybersecurity", 6),
	pattern(`\bclinical trial\b`, "Pharmaceuticals", 6),
	pattern(`\bbiotech(nology)?\b`, "Biotechnology", 6),
	pattern(`\brenewable energy\b`, "Energy & Utilities", 6),
	pattern(`\bpower systems?\b`, "Electrical Engineering", 6),
	pattern(`\b(digital marketing|marketing manager)\b`, "Marketing & Advertising", 6),
	pattern(`\b(sales executive|business development manager)\b`, "Sales", 6),
	pattern(`\b(human resources|talent acquisition)\b`, "HR & Recruitment", 6),
	pattern(`\bsocial worker\b`, "Social Care", 7),
	pattern(`\bsports coach\b`, "Sports & Fitness", 6),
	pattern(`\b(telecommunications|network engineer)\b`, "Telecommunications", 6),
	pattern(`\bsupply chain\b`, "Logistics & Supply Chain", 6),
	pattern(`\bprocurement\b`, "Logistics & Supply Chain", 5),
	pattern(`\b(construction manager|quantity surveyor)\b`, "Construction", 6),
	pattern(`\bmanufacturing engineer\b`, "Manufacturing", 6),
	pattern(`\b(oil (and|&) gas|subsea)\b`, "Oil & Gas", 6),
	pattern(`\b(mining engineer|geologist)\b`, "Mining & Resources", 6),
	pattern(`\bteacher\b`, "Education & Training", 6),
	pattern(`\blecturer\b`, "Education & Training", 5),
	pattern(`\bnurse\b`, "Healthcare & Medical", 6),
	pattern(`\bnhs\b`, "Healthcare & Medical", 5),
	pattern(`\bhospitality\b`, "Hospitality & Tourism", 6),
	pattern(`\bhotel\b`, "Hospitality & Tourism", 5),
	pattern(`\b(charity|fundraising)\b`, "Non-Profit & Charity", 6),
	pattern(`\b(real estate|property manager)\b`, "Property & Real Estate", 6),
	pattern(`\b(retail assistant|store manager)\b`, "Retail", 6),
	pattern(`\btransport planner\b`, "Transport", 6),
	pattern(`\blogistics coordinator\b`, "Logistics & Supply Chain", 6),
	pattern(`\b(water treatment|waste management)\b`, "Water & Waste Management", 6),
	pattern(`\bsustainability analyst\b`, "Environmental", 6),
	pattern(`\b(ux|graphic) designer\b`, "Creative & Design", 6),
	pattern(`\b(media production|journalism)\b`, "Entertainment & Media", 6),
}

// keywordSets add a small score per keyword present in the text; long
// keywords are more specific and weigh more.
var keywordSets = map[string][]string{
	"Accounting & Finance":       {"finance", "financial", "accounting", "accountant", "audit", "tax", "treasury", "ledger"},
	"Aerospace & Defence":        {"aerospace", "defence", "defense", "avionics", "aircraft", "spacecraft", "satellite"},
	"Agriculture & Farming":      {"agric", "farm", "crop", "livestock", "horticulture", "agronom"},
	"Architecture":               {"architect", "architecture", "architectural", "riba"},
	"Automotive":                 {"automotive", "vehicle", "automobile", "motorsport", "powertrain"},
	"Banking & Investment":       {"bank", "investment", "trading", "wealth", "capital markets", "equity", "fixed income"},
	"Biotechnology":              {"biotech", "biotechnology", "genomic", "cell therapy", "molecular", "bioinformatic"},
	"Chemical Engineering":       {"chemical engineering", "process engineer", "process design", "chemical plant"},
	"Civil Engineering":          {"civil engineering", "infrastructure", "highways", "bridges", "structural"},
	"Consulting":                 {"consulting", "consultant", "advisory", "strategy", "management consulting"},
	"Construction":               {"construction", "contractor", "site manager", "quantity surveyor", "building services"},
	"Creative & Design":          {"creative", "design", "designer", "graphic", "illustration", "copywriting"},
	"Cybersecurity":              {"cyber", "security analyst", "infosec", "threat", "penetration", "incident response"},
	"Data Science & Analytics":   {"data", "analytics", "machine learning", "statistical", "business intelligence", "power bi"},
	"Education & Training":       {"education", "teaching", "teacher", "school", "academy", "curriculum"},
	"Electrical Engineering":     {"electrical", "electronics", "circuit", "embedded", "power systems", "control systems"},
	"Energy & Utilities":         {"energy", "utilities", "renewable", "grid", "power generation", "wind", "solar"},
	"Engineering (General)":      {"engineering", "engineer"},
	"Entertainment & Media":      {"media", "entertainment", "broadcast", "film", "television", "journalism"},
	"Environmental":              {"environment", "sustainability", "carbon", "ecology", "greenhouse gas"},
	"Fashion & Textiles":         {"fashion", "textile", "apparel", "garment", "merchandiser"},
	"Food & Beverage":            {"food", "beverage", "nutrition", "culinary", "fmcg", "brewery"},
	"Government & Public Sector": {"public sector", "government", "civil service", "council", "local authority"},
	"Healthcare & Medical":       {"healthcare", "medical", "clinical", "patient", "nhs", "hospital"},
	"Hospitality & Tourism":      {"hospitality", "tourism", "hotel", "restaurant", "travel", "guest services"},
	"HR & Recruitment":           {"human resources", "people partner", "talent", "recruit", "resourcing"},
	"Insurance":                  {"insurance", "underwriting", "claims", "broker", "actuarial"},
	"IT & Software":              {"software", "developer", "programmer", "devops", "cloud", "saas"},
	"Law & Legal":                {"legal", "solicitor", "paralegal", "barrister", "compliance", "litigation"},
	"Logistics & Supply Chain":   {"logistics", "supply chain", "distribution", "fulfilment", "warehouse", "procurement"},
	"Manufacturing":              {"manufacturing", "production", "assembly", "lean", "six sigma", "factory"},
	"Marketing & Advertising":    {"marketing", "advertising", "brand", "campaign", "digital marketing", "seo"},
	"Mechanical Engineering":     {"mechanical", "cad", "thermodynamics", "mechanical design", "hvac"},
	"Mining & Resources":         {"mining", "mineral", "geology", "metallurgy", "geoscience"},
	"Non-Profit & Charity":       {"charity", "non-profit", "ngo", "third sector", "fundraising", "voluntary"},
	"Oil & Gas":                  {"petroleum", "upstream", "downstream", "offshore", "oil and gas"},
	"Pharmaceuticals":            {"pharmaceutical", "drug", "clinical trial", "gmp", "regulatory affairs", "pharma"},
	"Property & Real Estate":     {"real estate", "property", "estate agent", "lettings", "surveying", "proptech"},
	"Retail":                     {"retail", "store", "merchandising", "visual merchandising", "customer advisor"},
	"Sales":                      {"sales", "business development", "account executive", "inside sales"},
	"Science & Research":         {"research", "laboratory", "scientist", "r&d", "research associate"},
	"Social Care":                {"social care", "care worker", "support worker", "safeguarding"},
	"Sports & Fitness":           {"sport", "sports", "fitness", "athletic", "exercise science"},
	"Technology":                 {"technology", "digital transformation", "innovation", "product management"},
	"Telecommunications":         {"telecom", "telecommunications", "network", "fiber", "5g", "broadband"},
	"Transport":                  {"transport", "rail", "transportation", "fleet", "transport planner"},
	"Water & Waste Management":   {"water", "wastewater", "sewage", "waste management", "recycling"},
}

var hintSplitRe = regexp.MustCompile(`(?i)[,/]| and | & `)

// ClassifyIndustry scores every industry from hints, role patterns and
// keyword hits, and returns the winner only when it is clearly ahead.
// An empty string means "no confident classification".
func ClassifyIndustry(title, description, company string, hints []string) string {
	var parts []string
	for _, p := range []string{title, description, company} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	text := strings.ToLower(strings.Join(parts, " "))

	scores := make(map[string]float64, len(Industries))
	for _, hint := range hints {
		for _, piece := range hintSplitRe.Split(hint, -1) {
			piece = strings.ToLower(strings.TrimSpace(piece))
			if piece == "" {
				continue
			}
			for _, rule := range hintRules {
				if strings.Contains(piece, rule.keyword) {
					scores[rule.industry] += rule.score
				}
			}
		}
	}

	for _, rule := range patternRules {
		if rule.pattern.MatchString(text) {
			scores[rule.industry] += rule.score
		}
	}

	for industry, keywords := range keywordSets {
		for _, k := range keywords {
			if strings.Contains(text, k) {
				if len(k) >= 12 {
					scores[industry] += 1.5
				} else {
					scores[industry]++
				}
			}
		}
	}

	ranked := make([]string, len(Industries))
	copy(ranked, Industries)
	sort.SliceStable(ranked, func(i, j int) bool { return scores[ranked[i]] > scores[ranked[j]] })

	best, second := scores[ranked[0]], scores[ranked[1]]
	switch {
	case best <= 0:
		return ""
	case best >= 5 && best >= second+1:
		return ranked[0]
	case best >= 4 && best > second:
		return ranked[0]
	case best >= 3 && second <= 1:
		return ranked[0]
	}
	return ""
}

// CanonicalIndustry maps a free-form industry label onto the closed set,
// case-insensitively. Unknown labels yield "".
func CanonicalIndustry(label string) string {
	label = strings.TrimSpace(label)
	for _, industry := range Industries {
		if strings.EqualFold(industry, label) {
			return industry
		}
	}
	return ""
}
