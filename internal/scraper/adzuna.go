package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per (query × location) pair
)

// AdzunaSource polls the Adzuna search API for every query × location
// pair. Without credentials it yields an empty batch.
type AdzunaSource struct {
	AppID     string
	AppKey    string
	Country   string // "gb", "fr", …
	Queries   []string
	Locations []string
	BaseURL   string

	client *http.Client
	logger *zap.Logger
}

func NewAdzunaSource(appID, appKey, country string, queries, locations []string, logger *zap.Logger) *AdzunaSource {
	return &AdzunaSource{
		AppID:     appID,
		AppKey:    appKey,
		Country:   country,
		Queries:   queries,
		Locations: locations,
		BaseURL:   adzunaBaseURL,
		client:    newHTTPClient(),
		logger:    logging.OrNop(logger).Named("adzuna"),
	}
}

func (s *AdzunaSource) Name() string { return "adzuna:" + s.Country }

// adzunaResponse mirrors the top-level Adzuna JSON response. Results stay
// loosely typed; the normalizer reads the fields it knows.
type adzunaResponse struct {
	Results []model.RawPosting `json:"results"`
	Count   int                `json:"count"`
}

// FetchBatch fetches every pair, continuing past failed pairs.
func (s *AdzunaSource) FetchBatch(ctx context.Context) ([]model.RawPosting, error) {
	if s.AppID == "" || s.AppKey == "" {
		s.logger.Warn("ADZUNA_APP_ID / ADZUNA_APP_KEY not set, skipping")
		return nil, nil
	}

	locations := s.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}

	var (
		results []model.RawPosting
		errs    []error
	)
	for _, query := range s.Queries {
		for _, location := range locations {
			batch, err := s.fetch(ctx, query, location)
			results = append(results, batch...)
			if err != nil {
				s.logger.Warn("adzuna pair failed, continuing",
					zap.String("query", query), zap.String("location", location), zap.Error(err))
				errs = append(errs, fmt.Errorf("%q in %q: %w", query, location, err))
			}
		}
	}
	return results, errors.Join(errs...)
}

func (s *AdzunaSource) fetch(ctx context.Context, query, location string) ([]model.RawPosting, error) {
	var results []model.RawPosting
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := s.fetchPage(ctx, query, location, page)
		if err != nil {
			return results, fmt.Errorf("page %d: %w", page, err)
		}
		results = append(results, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}
	return results, nil
}

func (s *AdzunaSource) fetchPage(ctx context.Context, query, location string, page int) ([]model.RawPosting, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", strings.TrimRight(s.BaseURL, "/"), s.Country, page)

	params := url.Values{}
	params.Set("app_id", s.AppID)
	params.Set("app_key", s.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", query)
	if location != "" {
		params.Set("where", location)
	}
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	var resp adzunaResponse
	if err := getJSON(ctx, s.client, endpoint+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
