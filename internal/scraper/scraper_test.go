package scraper_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/ingest"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/normalize"
	"jobmate/listings-service/internal/scraper"
	"jobmate/listings-service/internal/store"
)

const longDescription = "Join our graduate scheme in London. You will rotate across " +
	"engineering teams, ship production code from week one, and get mentoring " +
	"from colleagues across the business. A 2:1 degree in a numerate subject is expected."

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestContainsRedFlag(t *testing.T) {
	flags := []string{"commission only", " ", "MLM"}

	assert.True(t, scraper.ContainsRedFlag("Sales Graduate", "Acme", "Commission ONLY role", flags))
	assert.True(t, scraper.ContainsRedFlag("Graduate", "mlm corp", "", flags))
	assert.False(t, scraper.ContainsRedFlag("Graduate Engineer", "Acme", "salaried", flags))
	assert.False(t, scraper.ContainsRedFlag("anything", "", "", nil))
}

func TestGreenhouseSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/boards/monzo/jobs", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("content"))
		writeJSON(w, map[string]any{"jobs": []map[string]any{
			{"title": "Graduate Analyst", "content": "&lt;p&gt;Hello&lt;/p&gt;", "absolute_url": "https://boards.greenhouse.io/monzo/jobs/1"},
			{"title": "Intern", "company_name": "Monzo Bank", "absolute_url": "https://boards.greenhouse.io/monzo/jobs/2"},
		}})
	}))
	defer srv.Close()

	src := scraper.NewGreenhouseSource("monzo")
	src.BaseURL = srv.URL
	assert.Equal(t, "greenhouse:monzo", src.Name())

	jobs, err := src.FetchBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "<p>Hello</p>", jobs[0]["content"])
	assert.Equal(t, "monzo", jobs[0]["company_name"])
	assert.Equal(t, "Monzo Bank", jobs[1]["company_name"])
}

func TestLeverSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/postings/arup", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("mode"))
		writeJSON(w, []map[string]any{{"text": "Graduate Engineer", "hostedUrl": "https://jobs.lever.co/arup/1"}})
	}))
	defer srv.Close()

	src := scraper.NewLeverSource("arup")
	src.BaseURL = srv.URL

	jobs, err := src.FetchBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "arup", jobs[0].String("companyName"))
}

func TestLeverSource_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such company", http.StatusNotFound)
	}))
	defer srv.Close()

	src := scraper.NewLeverSource("ghost")
	src.BaseURL = srv.URL

	_, err := src.FetchBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestAdzunaSource_PagesAndPairs(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "id", q.Get("app_id"))
		assert.Equal(t, "key", q.Get("app_key"))

		mu.Lock()
		calls = append(calls, r.URL.Path+"?"+q.Get("what")+"@"+q.Get("where"))
		mu.Unlock()

		if q.Get("what") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		n := 1
		if strings.HasSuffix(r.URL.Path, "/search/1") {
			n = 50
		}
		results := make([]map[string]any, n)
		for i := range results {
			results[i] = map[string]any{"title": "Graduate"}
		}
		writeJSON(w, map[string]any{"results": results, "count": 51})
	}))
	defer srv.Close()

	src := scraper.NewAdzunaSource("id", "key", "gb", []string{"graduate", "broken"}, []string{"London"}, nil)
	src.BaseURL = srv.URL

	jobs, err := src.FetchBatch(context.Background())
	require.Error(t, err, "the failing pair is reported")
	assert.Contains(t, err.Error(), `"broken"`)
	assert.Len(t, jobs, 51, "a full first page is followed by a short second one")
	assert.Equal(t, []string{
		"/gb/search/1?graduate@London",
		"/gb/search/2?graduate@London",
		"/gb/search/1?broken@London",
	}, calls)
}

func TestAdzunaSource_NoCredentials(t *testing.T) {
	src := scraper.NewAdzunaSource("", "", "gb", []string{"graduate"}, nil, nil)
	jobs, err := src.FetchBatch(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, jobs)
}

// staticSource replays a fixed batch.
type staticSource struct {
	name string
	raws []model.RawPosting
	err  error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) FetchBatch(context.Context) ([]model.RawPosting, error) {
	return s.raws, s.err
}

type recordingSink struct {
	mu      sync.Mutex
	batches map[string][]model.Job
	err     error
}

func (r *recordingSink) Publish(_ context.Context, source string, jobs []model.Job) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	if r.batches == nil {
		r.batches = map[string][]model.Job{}
	}
	r.batches[source] = jobs
	return len(jobs), nil
}

func newNormalizer() *normalize.Normalizer {
	return normalize.New(nil, nil, normalize.WithClock(func() time.Time {
		return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	}))
}

func rawPosting(title, company, url, description string) model.RawPosting {
	return model.RawPosting{
		"title":        title,
		"company_name": company,
		"absolute_url": url,
		"location":     "London, UK",
		"description":  description,
	}
}

func TestWorker_Pipeline(t *testing.T) {
	src := staticSource{name: "greenhouse:acme", raws: []model.RawPosting{
		rawPosting("Graduate Software Engineer", "Acme", "https://acme.com/jobs/1", longDescription),
		rawPosting("Senior Engineering Manager", "Acme", "https://acme.com/jobs/2", longDescription),
		rawPosting("Graduate Sales Associate", "Acme", "https://acme.com/jobs/3", longDescription+" Commission only."),
		rawPosting("Graduate Analyst", "Acme", "https://acme.com/jobs/4", "Too short in London."),
		{"company_name": "Acme"},
	}}
	sink := &recordingSink{}

	w := scraper.NewWorker([]scraper.Source{src}, newNormalizer(), sink, []string{"commission only"}, 2, nil)
	stats, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Sources)
	assert.Equal(t, 5, stats.Fetched)
	assert.Equal(t, 2, stats.Filtered, "senior role and red flag")
	assert.Equal(t, 2, stats.Invalid, "short description and missing title")
	assert.Equal(t, 1, stats.Published)
	assert.Empty(t, stats.Errors)

	batch := sink.batches["greenhouse:acme"]
	require.Len(t, batch, 1)
	assert.Equal(t, "Graduate Software Engineer", batch[0].Title)
	assert.Len(t, batch[0].Hash, 64)
	assert.NotEmpty(t, batch[0].Slug)
}

func TestWorker_FailingSourceDoesNotStopOthers(t *testing.T) {
	good := staticSource{name: "lever:acme", raws: []model.RawPosting{
		rawPosting("Graduate Software Engineer", "Acme", "https://acme.com/jobs/1", longDescription),
	}}
	bad := staticSource{name: "lever:ghost", err: errors.New("upstream returned 404")}
	sink := &recordingSink{}

	stats, err := scraper.NewWorker([]scraper.Source{bad, good}, newNormalizer(), sink, nil, 1, nil).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Published)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "lever:ghost")
}

func TestWorker_UnavailableSinkIsFatal(t *testing.T) {
	src := staticSource{name: "lever:acme", raws: []model.RawPosting{
		rawPosting("Graduate Software Engineer", "Acme", "https://acme.com/jobs/1", longDescription),
	}}
	sink := &recordingSink{err: apperrors.Unavailable("database unreachable", nil)}

	_, err := scraper.NewWorker([]scraper.Source{src}, newNormalizer(), sink, nil, 1, nil).
		Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeUnavailable))
}

func TestIngestSink(t *testing.T) {
	jobs := store.NewMemory()
	sink := scraper.IngestSink{Service: ingest.NewService(jobs, events.Nop{}, nil)}
	src := staticSource{name: "lever:acme", raws: []model.RawPosting{
		rawPosting("Graduate Software Engineer", "Acme", "https://acme.com/jobs/1", longDescription),
		rawPosting("Graduate Data Analyst", "Acme", "https://acme.com/jobs/2", longDescription),
	}}

	w := scraper.NewWorker([]scraper.Source{src}, newNormalizer(), sink, nil, 1, nil)
	for i := 0; i < 2; i++ {
		stats, err := w.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Published)
	}
	assert.Equal(t, 2, jobs.Len(), "re-running the scrape does not duplicate postings")
}
