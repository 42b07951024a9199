package fingerprint_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmate/listings-service/internal/fingerprint"
	"jobmate/listings-service/internal/model"
)

func TestHash_KnownValue(t *testing.T) {
	got := fingerprint.Hash("Graduate Engineer", "Acme", "https://acme.com/jobs/1")
	assert.Equal(t, "8eede589737a2d810d2d75f3f7d5decdbbe0cabebb5f1a0257f5e1061edf1ae5", got)
}

func TestHash_Deterministic(t *testing.T) {
	a := fingerprint.Hash("Graduate Engineer", "Acme", "https://acme.com/jobs/1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a, fingerprint.Hash("Graduate Engineer", "Acme", "https://acme.com/jobs/1"))
	}
}

func TestHash_IgnoresCaseAndSpacing(t *testing.T) {
	a := fingerprint.Hash("Graduate Engineer", "Acme", "https://acme.com/jobs/1")
	b := fingerprint.Hash("  graduate   engineer ", "ACME", "https://acme.com/jobs/1")
	assert.Equal(t, a, b)
}

func TestHash_DiffersOnURL(t *testing.T) {
	a := fingerprint.Hash("Graduate Engineer", "Acme", "https://acme.com/jobs/1")
	b := fingerprint.Hash("Graduate Engineer", "Acme", "https://acme.com/jobs/2")
	assert.NotEqual(t, a, b)
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Graduate Engineer-Acme-London", "graduate-engineer-acme-london"},
		{"R&D Intern", "r-and-d-intern"},
		{"M&S", "m-and-s"},
		{"Procter & Gamble", "procter-and-gamble"},
		{"  --Data   Analyst!!  ", "data-analyst"},
		{"C++ / C# Developer (2025)", "c-c-developer-2025"},
		{"Zürich Office", "z-rich-office"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, fingerprint.Slugify(c.in), c.in)
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := fingerprint.Slugify(strings.Repeat("abc ", 40))
	assert.Len(t, got, 80)
}

func TestSlug_AppendsHashPrefix(t *testing.T) {
	hash := fingerprint.Hash("Graduate Engineer", "Acme", "https://acme.com/jobs/1")
	slug := fingerprint.Slug("Graduate Engineer", "Acme", "", hash)
	assert.Equal(t, "graduate-engineer-acme-8eede589", slug)
}

func TestApply(t *testing.T) {
	job := &model.Job{
		Title:    "Graduate Engineer",
		Company:  model.Company{Name: "Acme"},
		Location: "London",
		ApplyURL: "https://acme.com/jobs/1",
	}
	fingerprint.Apply(job)
	assert.Equal(t, "8eede589737a2d810d2d75f3f7d5decdbbe0cabebb5f1a0257f5e1061edf1ae5", job.Hash)
	assert.Equal(t, "graduate-engineer-acme-london-8eede589", job.Slug)
}
