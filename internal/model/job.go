// Package model defines shared data structures for the listings service.
package model

import "time"

// JobType is the coarse role classification used by the listing UI.
type JobType string

const (
	JobTypeInternship JobType = "internship"
	JobTypePlacement  JobType = "placement"
	JobTypeGraduate   JobType = "graduate"
	JobTypeOther      JobType = "other"
)

// Company identifies the employer of a posting.
type Company struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// SalaryPeriod is the unit a salary amount is quoted in.
type SalaryPeriod string

const (
	SalaryPerYear  SalaryPeriod = "year"
	SalaryPerMonth SalaryPeriod = "month"
	SalaryPerWeek  SalaryPeriod = "week"
	SalaryPerDay   SalaryPeriod = "day"
	SalaryPerHour  SalaryPeriod = "hour"
)

// Salary is a structured compensation range. Max is zero when the source
// only quoted a single figure.
type Salary struct {
	Min      float64      `json:"min"`
	Max      float64      `json:"max,omitempty"`
	Currency string       `json:"currency"`
	Period   SalaryPeriod `json:"period"`
}

// Job is the canonical job posting, the unit of storage.
//
// Hash is the global identity of a posting and never changes once assigned.
// IsExpired and LastCheckedAt are owned by the link checker.
type Job struct {
	ID   string `json:"id,omitempty"` // store-native ID
	Hash string `json:"hash"`
	Slug string `json:"slug"`

	Title           string     `json:"title"`
	Company         Company    `json:"company"`
	Location        string     `json:"location,omitempty"`
	DescriptionHTML string     `json:"descriptionHtml,omitempty"`
	DescriptionText string     `json:"descriptionText,omitempty"`
	JobType         JobType    `json:"jobType"`
	Industry        string     `json:"industry,omitempty"`
	Salary          *Salary    `json:"salary,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	ApplyDeadline   *time.Time `json:"applyDeadline,omitempty"`
	PostedAt        time.Time  `json:"postedAt"`

	Source         string `json:"source"`
	SourceURL      string `json:"sourceUrl,omitempty"`
	ApplyURL       string `json:"applyUrl,omitempty"`
	CompanyPageURL string `json:"companyPageUrl,omitempty"`
	CompanyLogo    string `json:"companyLogo,omitempty"`

	IsExpired     bool       `json:"isExpired"`
	LastCheckedAt *time.Time `json:"lastCheckedAt,omitempty"`

	QualityScore  *int       `json:"qualityScore,omitempty"`
	LastValidated *time.Time `json:"lastValidated,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// SavedJob is a user bookmark pointing at a Job by store-native ID.
// Its lifecycle is owned outside this service.
type SavedJob struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
}
