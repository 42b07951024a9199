package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/normalize"
)

func TestClassifyJobType(t *testing.T) {
	cases := []struct {
		title string
		tags  []string
		want  model.JobType
	}{
		{"Summer Internship 2025", nil, model.JobTypeInternship},
		{"Industrial Placement - Finance", nil, model.JobTypePlacement},
		{"Graduate Engineer", nil, model.JobTypeGraduate},
		{"Junior Developer", nil, model.JobTypeGraduate},
		{"Software Engineer", []string{"Interns"}, model.JobTypeInternship},
		{"Internship / Placement Year", nil, model.JobTypeInternship},
		{"Placement Year - Graduate Track", nil, model.JobTypePlacement},
		{"International Sales Executive", nil, model.JobTypeOther},
		{"Data Analyst", []string{"Full-time"}, model.JobTypeOther},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalize.ClassifyJobType(c.title, c.tags...), c.title)
	}
}

func TestIsRelevantJobType(t *testing.T) {
	assert.True(t, normalize.IsRelevantJobType("Graduate Software Engineer"))
	assert.True(t, normalize.IsRelevantJobType("Summer Internship - Business Analyst"))
	assert.True(t, normalize.IsRelevantJobType("Year in Industry placement"))
	assert.False(t, normalize.IsRelevantJobType("Senior Software Engineer"))
	assert.False(t, normalize.IsRelevantJobType("Software Engineer"))
	assert.False(t, normalize.IsRelevantJobType("Graduate programme lead"))
	assert.False(t, normalize.IsRelevantJobType("International trade analyst"))
}

func TestIsUKJob(t *testing.T) {
	assert.True(t, normalize.IsUKJob("Graduate Engineer London"))
	assert.True(t, normalize.IsUKJob("Business Analyst Graduate, Manchester, UK"))
	assert.False(t, normalize.IsUKJob("Graduate Engineer, New York, USA"))
	assert.False(t, normalize.IsUKJob("Graduate Engineer, Paris"))
	assert.False(t, normalize.IsUKJob("Graduate Engineer, London or Berlin"))
}

func TestAccept(t *testing.T) {
	ok, reason := normalize.Accept(&model.Job{Title: "Graduate Engineer", Location: "Bristol"})
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = normalize.Accept(&model.Job{Title: "Engineering Manager", Location: "Bristol"})
	assert.False(t, ok)
	assert.Equal(t, "not-early-careers", reason)

	ok, reason = normalize.Accept(&model.Job{Title: "Graduate Engineer", Location: "Toronto"})
	assert.False(t, ok)
	assert.Equal(t, "not-uk", reason)
}

func TestClassifyIndustry(t *testing.T) {
	assert.Equal(t, "IT & Software",
		normalize.ClassifyIndustry("Graduate Software Engineer", "Build backend services in Go", "Acme", nil))
	assert.Equal(t, "Civil Engineering",
		normalize.ClassifyIndustry("Graduate Civil Engineer", "", "Arup", []string{"Civil Engineering"}))
	assert.Equal(t, "Banking & Investment",
		normalize.ClassifyIndustry("Investment Banking Summer Analyst", "", "", []string{"Banking"}))
	assert.Equal(t, "", normalize.ClassifyIndustry("Graduate Scheme", "", "", nil))
}

func TestCanonicalIndustry(t *testing.T) {
	assert.Equal(t, "IT & Software", normalize.CanonicalIndustry(" it & software "))
	assert.Equal(t, "", normalize.CanonicalIndustry("Widgets"))
}
