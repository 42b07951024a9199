package normalize

import (
	"fmt"
	"strings"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/model"
)

const minDescriptionChars = 150

// Validate rejects postings too thin to publish. It runs at the source
// boundary before a batch is handed to ingestion.
func Validate(job *model.Job) error {
	switch {
	case len(strings.TrimSpace(job.Title)) < 3:
		return apperrors.InvalidInput("invalid title", nil)
	case len(strings.TrimSpace(job.Company.Name)) < 2:
		return apperrors.InvalidInput("invalid company name", nil)
	case len(strings.TrimSpace(job.ApplyURL)) < 10:
		return apperrors.InvalidInput("invalid apply url", nil)
	case len(job.Hash) < 10:
		return apperrors.InvalidInput("invalid hash", nil)
	case len(job.Slug) < 5:
		return apperrors.InvalidInput("invalid slug", nil)
	}

	text := job.DescriptionText
	if text == "" {
		text = HTMLToText(job.DescriptionHTML)
	}
	if n := len([]rune(CollapseSpace(text))); n < minDescriptionChars {
		return apperrors.InvalidInput(
			fmt.Sprintf("description too short (%d chars, need %d)", n, minDescriptionChars), nil)
	}
	return nil
}
