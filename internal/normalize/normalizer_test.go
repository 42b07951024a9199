package normalize_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/fingerprint"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/normalize"
)

var fixedNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newNormalizer(t *testing.T) *normalize.Normalizer {
	return normalize.New(nil, nil,
		normalize.WithClock(func() time.Time { return fixedNow }),
		normalize.WithLocation(london(t)),
	)
}

func TestNormalize_LeverShape(t *testing.T) {
	raw := model.RawPosting{
		"text":             "  Graduate Software Engineer ",
		"hostedUrl":        "https://jobs.lever.co/arup/123",
		"applyUrl":         "https://jobs.lever.co/arup/123/apply?utm_source=linkedin",
		"createdAt":        float64(1741996800000),
		"descriptionPlain": "Join our   London team.",
		"description":      "<p>Join our London team.</p>",
		"categories": map[string]any{
			"location":   "London, UK",
			"team":       "Digital",
			"commitment": "Graduate",
		},
	}

	job, err := newNormalizer(t).Normalize(context.Background(), raw, "lever:arup")
	require.NoError(t, err)

	assert.Equal(t, "Graduate Software Engineer", job.Title)
	assert.Equal(t, "London, UK", job.Location)
	assert.Equal(t, "lever:arup", job.Source)
	assert.Equal(t, "https://jobs.lever.co/arup/123", job.SourceURL)
	assert.Equal(t, "https://jobs.lever.co/arup/123/apply", job.ApplyURL)
	assert.Equal(t, "<p>Join our London team.</p>", job.DescriptionHTML)
	assert.Equal(t, "Join our London team.", job.DescriptionText)
	assert.Equal(t, model.JobTypeGraduate, job.JobType)
	assert.Equal(t, "IT & Software", job.Industry)
	assert.True(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC).Equal(job.PostedAt))
	assert.Nil(t, job.ApplyDeadline)
	require.NotNil(t, job.QualityScore)
	assert.Greater(t, *job.QualityScore, 0)
	assert.Empty(t, job.Hash, "fingerprinting is a separate step")
}

func TestNormalize_GreenhouseShapeWithDeadlineAndSalary(t *testing.T) {
	raw := model.RawPosting{
		"title":        "Summer Internship - Finance",
		"absolute_url": "https://boards.greenhouse.io/acme/jobs/9",
		"location":     map[string]any{"name": "Edinburgh"},
		"content":      `<p>Salary: £24,000 - £26,000</p><p class="deadline">Deadline: 30 June 2030</p>`,
		"metadata":     []any{map[string]any{"name": "Type", "value": "Internship"}},
		"company_name": "Acme Bank",
		"salary":       "£24,000 - £26,000",
	}

	job, err := newNormalizer(t).Normalize(context.Background(), raw, "greenhouse:acme")
	require.NoError(t, err)

	assert.Equal(t, "Acme Bank", job.Company.Name)
	assert.Equal(t, "Edinburgh", job.Location)
	assert.Equal(t, model.JobTypeInternship, job.JobType)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/9", job.ApplyURL)
	require.NotNil(t, job.Salary)
	assert.Equal(t, 24000.0, job.Salary.Min)
	assert.Equal(t, 26000.0, job.Salary.Max)
	require.NotNil(t, job.ApplyDeadline)
	assert.Equal(t, time.Date(2030, 6, 30, 22, 59, 59, 0, time.UTC), *job.ApplyDeadline)
	assert.True(t, fixedNow.Equal(job.PostedAt), "postedAt defaults to ingestion time")
}

func TestNormalize_StructuredSalaryWins(t *testing.T) {
	raw := model.RawPosting{
		"title":        "Graduate Analyst",
		"redirect_url": "https://www.adzuna.co.uk/jobs/land/ad/1",
		"salary_min":   float64(27000),
		"salary_max":   float64(31000),
		"salary":       "£10 per hour",
	}
	job, err := newNormalizer(t).Normalize(context.Background(), raw, "adzuna:gb")
	require.NoError(t, err)
	require.NotNil(t, job.Salary)
	assert.Equal(t, model.Salary{Min: 27000, Max: 31000, Currency: "GBP", Period: model.SalaryPerYear}, *job.Salary)
}

func TestNormalize_MissingTitle(t *testing.T) {
	_, err := newNormalizer(t).Normalize(context.Background(), model.RawPosting{"company": "Acme"}, "x")
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}

func TestNormalize_SameJobFromTwoSourcesSharesHash(t *testing.T) {
	n := newNormalizer(t)
	ctx := context.Background()

	a, err := n.Normalize(ctx, model.RawPosting{
		"title": "Graduate Engineer", "company": "Acme", "applyUrl": "https://acme.com/jobs/1",
	}, "site:acme")
	require.NoError(t, err)
	b, err := n.Normalize(ctx, model.RawPosting{
		"title": "graduate engineer", "company": "ACME", "applyUrl": "https://acme.com/jobs/1?utm_source=x",
	}, "board:aggregator")
	require.NoError(t, err)

	fingerprint.Apply(a)
	fingerprint.Apply(b)
	assert.Equal(t, a.ApplyURL, b.ApplyURL)
	assert.Equal(t, a.Hash, b.Hash)
}

func TestValidate(t *testing.T) {
	job := &model.Job{
		Title:           "Graduate Engineer",
		Company:         model.Company{Name: "Acme"},
		ApplyURL:        "https://acme.com/jobs/1",
		DescriptionText: strings.Repeat("Design bridges. ", 12),
	}
	fingerprint.Apply(job)
	assert.NoError(t, normalize.Validate(job))

	short := *job
	short.DescriptionText = "Too short."
	err := normalize.Validate(&short)
	assert.ErrorContains(t, err, "description too short")

	noCompany := *job
	noCompany.Company.Name = "A"
	assert.ErrorContains(t, normalize.Validate(&noCompany), "company")
}
