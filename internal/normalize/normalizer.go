package normalize

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
)

// Field aliases seen across sources, in lookup priority order.
var (
	titleKeys          = []string{"title", "text", "jobTitle", "position", "name"}
	companyKeys        = []string{"company.name", "company.display_name", "companyName", "company_name", "hiringOrganization.name", "organization", "company"}
	companyWebsiteKeys = []string{"company.website", "companyWebsite", "company_website", "hiringOrganization.sameAs"}
	companyLogoKeys    = []string{"companyLogo", "company.logoUrl", "company_logo", "logo", "hiringOrganization.logo"}
	companyPageKeys    = []string{"companyPageUrl", "company_page_url", "careersUrl"}
	locationKeys       = []string{"location.name", "location.display_name", "categories.location", "jobLocation.address.addressLocality", "location", "city"}
	htmlKeys           = []string{"descriptionHtml", "description_html", "content", "description"}
	textKeys           = []string{"descriptionText", "descriptionPlain", "description_text", "description"}
	applyURLKeys       = []string{"applyUrl", "apply_url", "applyURL", "absolute_url", "hostedUrl", "redirect_url", "url"}
	sourceURLKeys      = []string{"sourceUrl", "source_url", "hostedUrl", "absolute_url", "url"}
	postedKeys         = []string{"postedAt", "posted_at", "datePosted", "publishedAt", "published_at", "createdAt", "created_at", "created", "updated_at"}
	deadlineKeys       = []string{"applyDeadline", "apply_deadline", "deadline", "closingDate", "closing_date", "validThrough", "expiresAt"}
	startKeys          = []string{"startDate", "start_date"}
	endKeys            = []string{"endDate", "end_date"}
	salaryMinKeys      = []string{"salary.min", "salaryMin", "salary_min", "baseSalary.value.minValue"}
	salaryMaxKeys      = []string{"salary.max", "salaryMax", "salary_max", "baseSalary.value.maxValue"}
	salaryTextKeys     = []string{"salaryText", "salary", "compensation"}
	tagKeys            = []string{"tags", "team", "department", "departments", "categories.team", "categories.commitment", "category", "metadata", "contractType", "contract_type", "contract_time", "employmentType"}
	industryKeys       = []string{"industry"}
)

// Normalizer turns raw source records into canonical postings.
type Normalizer struct {
	resolver URLResolver
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Normalizer)

// WithClock overrides the clock used for default postedAt values.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithLocation sets the zone used for dates that carry none.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) { n.loc = loc }
}

// New builds a Normalizer. A nil resolver skips redirect resolution and
// only strips tracking parameters.
func New(resolver URLResolver, logger *zap.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		resolver: resolver,
		loc:      time.UTC,
		now:      time.Now,
		logger:   logging.OrNop(logger).Named("normalize"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps one raw posting from source onto the canonical shape.
// It fails only when the record has no title; every other field is either
// populated or explicitly left at its zero value.
func (n *Normalizer) Normalize(ctx context.Context, raw model.RawPosting, source string) (*model.Job, error) {
	title := CollapseSpace(raw.String(titleKeys...))
	if title == "" {
		return nil, apperrors.InvalidInput("raw posting has no title", nil)
	}

	job := &model.Job{
		Title: title,
		Company: model.Company{
			Name:    CollapseSpace(raw.String(companyKeys...)),
			Website: raw.String(companyWebsiteKeys...),
			LogoURL: raw.String(companyLogoKeys...),
		},
		Location:       CollapseSpace(raw.String(locationKeys...)),
		Source:         source,
		CompanyPageURL: raw.String(companyPageKeys...),
		CompanyLogo:    raw.String(companyLogoKeys...),
	}

	n.describe(job, raw)

	tags := raw.Strings(tagKeys...)
	job.JobType = ClassifyJobType(job.Title, tags...)
	if industry := CanonicalIndustry(raw.String(industryKeys...)); industry != "" {
		job.Industry = industry
	} else {
		job.Industry = ClassifyIndustry(job.Title, job.DescriptionText, job.Company.Name, tags)
	}

	job.Salary = salaryFrom(raw)

	job.PostedAt = n.now().UTC()
	if t, ok := ParseDate(raw.String(postedKeys...), n.loc); ok {
		job.PostedAt = t
	}
	job.ApplyDeadline = n.date(raw, deadlineKeys)
	if job.ApplyDeadline == nil {
		job.ApplyDeadline = ExtractDeadline(job.DescriptionHTML, n.loc)
	}
	job.StartDate = n.date(raw, startKeys)
	job.EndDate = n.date(raw, endKeys)

	sourceURL := raw.String(sourceURLKeys...)
	applyURL := raw.String(applyURLKeys...)
	if applyURL == "" {
		applyURL = sourceURL
	}
	job.SourceURL = sourceURL
	job.ApplyURL = n.resolve(ctx, applyURL)

	score := QualityScore(job)
	validated := n.now().UTC()
	job.QualityScore = &score
	job.LastValidated = &validated
	return job, nil
}

func (n *Normalizer) describe(job *model.Job, raw model.RawPosting) {
	html := raw.String(htmlKeys...)
	text := raw.String(textKeys...)
	if looksLikeHTML(html) {
		job.DescriptionHTML = html
	}
	switch {
	case text != "" && !looksLikeHTML(text):
		job.DescriptionText = CollapseSpace(text)
	case job.DescriptionHTML != "":
		job.DescriptionText = HTMLToText(job.DescriptionHTML)
	}
}

func (n *Normalizer) date(raw model.RawPosting, keys []string) *time.Time {
	t, ok := ParseDate(raw.String(keys...), n.loc)
	if !ok {
		return nil
	}
	return &t
}

func (n *Normalizer) resolve(ctx context.Context, rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if n.resolver == nil {
		return normalizedOrRaw(rawURL)
	}
	return n.resolver.Resolve(ctx, rawURL)
}

func salaryFrom(raw model.RawPosting) *model.Salary {
	if minVal, ok := raw.Float(salaryMinKeys...); ok && minVal > 0 {
		s := &model.Salary{Min: minVal, Currency: "GBP", Period: model.SalaryPerYear}
		if maxVal, ok := raw.Float(salaryMaxKeys...); ok && maxVal >= minVal {
			s.Max = maxVal
		}
		if c := raw.String("salary.currency", "salaryCurrency", "salary_currency"); c != "" {
			s.Currency = c
		}
		if p := raw.String("salary.period", "salaryPeriod"); p != "" {
			s.Period = salaryPeriod(p)
		}
		return s
	}
	return ParseSalary(raw.String(salaryTextKeys...))
}
