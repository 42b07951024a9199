package scraper

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"jobmate/listings-service/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io"

// GreenhouseSource lists a company's public Greenhouse job board.
type GreenhouseSource struct {
	Board   string
	BaseURL string
	client  *http.Client
}

func NewGreenhouseSource(board string) *GreenhouseSource {
	return &GreenhouseSource{Board: board, BaseURL: greenhouseBaseURL, client: newHTTPClient()}
}

func (s *GreenhouseSource) Name() string { return "greenhouse:" + s.Board }

func (s *GreenhouseSource) FetchBatch(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", strings.TrimRight(s.BaseURL, "/"), s.Board)

	var resp struct {
		Jobs []model.RawPosting `json:"jobs"`
	}
	if err := getJSON(ctx, s.client, url, &resp); err != nil {
		return nil, fmt.Errorf("greenhouse board %s: %w", s.Board, err)
	}

	for _, raw := range resp.Jobs {
		// content arrives entity-escaped
		if c, ok := raw["content"].(string); ok {
			raw["content"] = html.UnescapeString(c)
		}
		if raw.String("company_name") == "" {
			raw["company_name"] = s.Board
		}
	}
	return resp.Jobs, nil
}
