package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"jobmate/listings-service/internal/model"
)

const leverBaseURL = "https://api.lever.co"

// LeverSource lists a company's public Lever postings.
type LeverSource struct {
	Company string
	BaseURL string
	client  *http.Client
}

func NewLeverSource(company string) *LeverSource {
	return &LeverSource{Company: company, BaseURL: leverBaseURL, client: newHTTPClient()}
}

func (s *LeverSource) Name() string { return "lever:" + s.Company }

func (s *LeverSource) FetchBatch(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/v0/postings/%s?mode=json", strings.TrimRight(s.BaseURL, "/"), s.Company)

	var postings []model.RawPosting
	if err := getJSON(ctx, s.client, url, &postings); err != nil {
		return nil, fmt.Errorf("lever company %s: %w", s.Company, err)
	}
	for _, raw := range postings {
		if raw.String("company", "companyName") == "" {
			raw["companyName"] = s.Company
		}
	}
	return postings, nil
}
