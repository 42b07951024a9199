package normalize

import (
	"jobmate/listings-service/internal/model"
)

// QualityScore rates the completeness of a posting from 0 to 100.
func QualityScore(job *model.Job) int {
	score := 0
	switch n := len([]rune(job.DescriptionText)); {
	case n >= 300:
		score += 25
	case n >= 150:
		score += 15
	}
	if job.ApplyURL != "" {
		score += 15
	}
	if job.Location != "" {
		score += 10
	}
	if job.ApplyDeadline != nil {
		score += 10
	}
	if job.Salary != nil {
		score += 10
	}
	if job.Industry != "" {
		score += 10
	}
	if job.CompanyPageURL != "" || job.Company.Website != "" {
		score += 10
	}
	if job.JobType != "" && job.JobType != model.JobTypeOther {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
