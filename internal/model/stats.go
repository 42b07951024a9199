package model

import "time"

// DedupStats summarises one deduplication run.
type DedupStats struct {
	RunID           string    `json:"runId"`
	TotalScanned    int       `json:"totalScanned"`
	UnknownRemoved  int       `json:"unknownRemoved"`
	DuplicateGroups int       `json:"duplicateGroups"`
	Deleted         int       `json:"deleted"`
	Repointed       int       `json:"repointed"`
	Errors          []string  `json:"errors"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
}

// CleanupStats summarises one expiry cleanup run.
type CleanupStats struct {
	RunID          string    `json:"runId"`
	Cutoff         time.Time `json:"cutoff"`
	TotalExpired   int       `json:"totalExpired"`
	ReferencedKept int       `json:"referencedKept"`
	Deleted        int       `json:"deleted"`
	Errors         []string  `json:"errors"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// CleanupPreview reports what a cleanup run would touch without deleting.
type CleanupPreview struct {
	Cutoff               time.Time `json:"cutoff"`
	WithDeadline         int       `json:"withDeadline"`
	PastCutoff           int       `json:"pastCutoff"`
	PastCutoffReferenced int       `json:"pastCutoffReferenced"`
}

// LinkCheckStats summarises one link-liveness run.
type LinkCheckStats struct {
	RunID      string    `json:"runId"`
	Checked    int       `json:"checked"`
	Expired    int       `json:"expired"`
	Active     int       `json:"active"`
	Errors     []string  `json:"errors"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// ScrapeStats summarises one pass over every configured source.
type ScrapeStats struct {
	RunID      string    `json:"runId"`
	Sources    int       `json:"sources"`
	Fetched    int       `json:"fetched"`
	Filtered   int       `json:"filtered"`
	Invalid    int       `json:"invalid"`
	Published  int       `json:"published"`
	Errors     []string  `json:"errors"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
