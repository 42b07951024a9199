package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/normalize"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func TestParseSalary(t *testing.T) {
	cases := []struct {
		in   string
		want *model.Salary
	}{
		{"£25,000 - £30,000 per annum", &model.Salary{Min: 25000, Max: 30000, Currency: "GBP", Period: model.SalaryPerYear}},
		{"£28k", &model.Salary{Min: 28000, Currency: "GBP", Period: model.SalaryPerYear}},
		{"£25-30k", &model.Salary{Min: 25000, Max: 30000, Currency: "GBP", Period: model.SalaryPerYear}},
		{"£12.50/hour", &model.Salary{Min: 12.5, Currency: "GBP", Period: model.SalaryPerHour}},
		{"2000 per month", &model.Salary{Min: 2000, Currency: "GBP", Period: model.SalaryPerMonth}},
		{"Competitive", nil},
		{"", nil},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalize.ParseSalary(c.in), c.in)
	}
}

func TestParseDate(t *testing.T) {
	loc := london(t)
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"2025-03-15T00:00:00Z",
		"2025-03-15",
		"15/03/2025",
		"15th March 2025",
		"1741996800",
		"1741996800000",
	} {
		got, ok := normalize.ParseDate(in, loc)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	summer, ok := normalize.ParseDate("2025-06-15", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC), summer)

	for _, bad := range []string{"", "soon", "42"} {
		_, ok := normalize.ParseDate(bad, loc)
		assert.False(t, ok, bad)
	}
}

func TestExtractDeadline(t *testing.T) {
	loc := london(t)
	want := time.Date(2030, 6, 15, 22, 59, 59, 0, time.UTC)

	cases := []string{
		`<div><p>About the role</p><span class="closing-date">Closing date: 15/06/2030</span></div>`,
		`<p>Great scheme.</p><p>Application deadline: 15 June 2030</p>`,
		`Apply by 2030-06-15 via our portal.`,
	}
	for _, html := range cases {
		got := normalize.ExtractDeadline(html, loc)
		require.NotNil(t, got, html)
		assert.Equal(t, want, *got, html)
	}

	assert.Nil(t, normalize.ExtractDeadline(`<p>Rolling applications</p>`, loc))
	assert.Nil(t, normalize.ExtractDeadline(`Deadline: 31/02/2030`, loc))
	assert.Nil(t, normalize.ExtractDeadline("", loc))
}

func TestHTMLToText(t *testing.T) {
	got := normalize.HTMLToText(`<h2>Role</h2><p>Build   things.</p><ul><li>Go</li><li>SQL</li></ul><script>x()</script>`)
	assert.Equal(t, "Role Build things. Go SQL", got)
	assert.Equal(t, "plain text", normalize.HTMLToText("  plain \n text "))
}
