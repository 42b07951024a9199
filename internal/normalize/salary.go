package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"jobmate/listings-service/internal/model"
)

var (
	poundSalaryRe = regexp.MustCompile(`(?i)£(\d{1,6}(?:\.\d{1,2})?)(k)?(?:(?:-|–|/|to)+£?(\d{1,6}(?:\.\d{1,2})?)(k)?)?`)
	plainSalaryRe = regexp.MustCompile(`(?i)(\d{2,6}(?:\.\d{1,2})?)(k)?(?:(?:-|–|/|to)+(\d{2,6}(?:\.\d{1,2})?)(k)?)?`)
)

// ParseSalary extracts a GBP amount or range from free text such as
// "£25,000 - £30,000 per annum" or "£12.50/hour". It returns nil when no
// amount is present.
func ParseSalary(text string) *model.Salary {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	compact := strings.NewReplacer(",", "", " ", "").Replace(text)

	m := poundSalaryRe.FindStringSubmatch(compact)
	if m == nil {
		m = plainSalaryRe.FindStringSubmatch(compact)
	}
	if m == nil {
		return nil
	}

	minVal := amount(m[1], m[2])
	if minVal <= 0 {
		return nil
	}
	s := &model.Salary{Min: minVal, Currency: "GBP", Period: salaryPeriod(text)}
	if m[3] != "" {
		maxVal := amount(m[3], m[4])
		// "£25-30k" quotes both ends in thousands
		if m[2] == "" && m[4] != "" && minVal < 1000 {
			s.Min = minVal * 1000
		}
		if maxVal >= s.Min {
			s.Max = maxVal
		}
	}
	return s
}

func amount(digits, k string) float64 {
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	if k != "" {
		v *= 1000
	}
	return v
}

func salaryPeriod(text string) model.SalaryPeriod {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "hour") || strings.Contains(t, "/hr") || strings.Contains(t, "p/h"):
		return model.SalaryPerHour
	case strings.Contains(t, "day") || strings.Contains(t, "daily"):
		return model.SalaryPerDay
	case strings.Contains(t, "week"):
		return model.SalaryPerWeek
	case strings.Contains(t, "month"):
		return model.SalaryPerMonth
	}
	return model.SalaryPerYear
}
