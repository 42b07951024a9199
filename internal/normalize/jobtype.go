package normalize

import (
	"regexp"
	"strings"

	"jobmate/listings-service/internal/model"
)

var (
	internshipRe = regexp.MustCompile(`\b(intern(ship)?s?|summer internship|winter internship|spring internship|vacation scheme|vacation work)\b`)
	placementRe  = regexp.MustCompile(`\b(placements?|year in industry|sandwich|industrial placement|work placement|year out|gap year|year abroad)\b`)
	graduateRe   = regexp.MustCompile(`\b(graduates?|early careers?|new grad|new graduate|entry level|entry-level|junior|trainee|traineeship|graduate scheme|graduate program|graduate programme)\b`)
)

// ClassifyJobType classifies a posting from its title plus auxiliary tags
// (team, category, commitment). The first matching class wins, in the order
// internship, placement, graduate.
func ClassifyJobType(title string, tags ...string) model.JobType {
	t := strings.ToLower(title + " " + strings.Join(tags, " "))
	switch {
	case internshipRe.MatchString(t):
		return model.JobTypeInternship
	case placementRe.MatchString(t):
		return model.JobTypePlacement
	case graduateRe.MatchString(t):
		return model.JobTypeGraduate
	}
	return model.JobTypeOther
}
