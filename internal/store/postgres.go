package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/model"
)

const jobColumns = `id, hash, slug, title, company_name, company_website, company_logo_url,
	location, description_html, description_text, job_type, industry, salary,
	start_date, end_date, apply_deadline, posted_at,
	source, source_url, apply_url, company_page_url, company_logo,
	is_expired, last_checked_at, quality_score, last_validated, created_at, updated_at`

// Postgres is the JobStore backed by the jobs table. Conditional deletes
// consult saved_jobs in the same database.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.Job, error) {
	var j model.Job
	err := row.Scan(
		&j.ID, &j.Hash, &j.Slug, &j.Title, &j.Company.Name, &j.Company.Website, &j.Company.LogoURL,
		&j.Location, &j.DescriptionHTML, &j.DescriptionText, &j.JobType, &j.Industry, &j.Salary,
		&j.StartDate, &j.EndDate, &j.ApplyDeadline, &j.PostedAt,
		&j.Source, &j.SourceURL, &j.ApplyURL, &j.CompanyPageURL, &j.CompanyLogo,
		&j.IsExpired, &j.LastCheckedAt, &j.QualityScore, &j.LastValidated, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

// buildWhere renders f as a WHERE clause whose placeholders continue
// after args.
func buildWhere(f Filter, args []any) (string, []any) {
	var conds []string
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Hash != "" {
		conds = append(conds, "hash = "+param(f.Hash))
	}
	if f.UnknownCompany {
		conds = append(conds, "lower(btrim(company_name)) IN ('', 'unknown')")
	}
	if f.HasDeadline {
		conds = append(conds, "apply_deadline IS NOT NULL")
	}
	if f.DeadlineBefore != nil {
		conds = append(conds, "apply_deadline < "+param(*f.DeadlineBefore))
	}
	if f.CheckDueBefore != nil {
		conds = append(conds,
			"is_expired = FALSE AND (last_checked_at IS NULL OR last_checked_at <= "+param(*f.CheckDueBefore)+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(s Sort) string {
	switch s {
	case SortLastChecked:
		return " ORDER BY last_checked_at ASC NULLS FIRST, id ASC"
	default:
		return " ORDER BY created_at ASC, id ASC"
	}
}

func (p *Postgres) FindMany(ctx context.Context, q Query) ([]model.Job, error) {
	where, args := buildWhere(q.Filter, nil)
	sql := `SELECT ` + jobColumns + ` FROM jobs` + where + orderBy(q.Sort)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("findMany query", err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("findMany scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("findMany rows", err)
	}
	return jobs, nil
}

func (p *Postgres) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := buildWhere(f, nil)
	var n int64
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&n); err != nil {
		return 0, mapError("count", err)
	}
	return n, nil
}

func (p *Postgres) Create(ctx context.Context, job *model.Job) error {
	if job.PostedAt.IsZero() {
		job.PostedAt = time.Now().UTC()
	}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO jobs (
		   hash, slug, title, company_name, company_website, company_logo_url,
		   location, description_html, description_text, job_type, industry, salary,
		   start_date, end_date, apply_deadline, posted_at,
		   source, source_url, apply_url, company_page_url, company_logo,
		   quality_score, last_validated
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		           $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		 RETURNING id, is_expired, created_at, updated_at`,
		job.Hash, job.Slug, job.Title, job.Company.Name, job.Company.Website, job.Company.LogoURL,
		job.Location, job.DescriptionHTML, job.DescriptionText, job.JobType, job.Industry, job.Salary,
		job.StartDate, job.EndDate, job.ApplyDeadline, job.PostedAt,
		job.Source, job.SourceURL, job.ApplyURL, job.CompanyPageURL, job.CompanyLogo,
		job.QualityScore, job.LastValidated,
	).Scan(&job.ID, &job.IsExpired, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return mapError("create", err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, id string, job *model.Job) error {
	err := p.pool.QueryRow(ctx,
		`UPDATE jobs SET
		   title = $2, company_name = $3, company_website = $4, company_logo_url = $5,
		   location = $6, description_html = $7, description_text = $8, job_type = $9,
		   industry = $10, salary = $11, start_date = $12, end_date = $13,
		   apply_deadline = $14, posted_at = $15, source = $16, source_url = $17,
		   apply_url = $18, company_page_url = $19, company_logo = $20,
		   quality_score = $21, last_validated = $22, updated_at = NOW()
		 WHERE id = $1
		 RETURNING hash, slug, is_expired, last_checked_at, created_at, updated_at`,
		id, job.Title, job.Company.Name, job.Company.Website, job.Company.LogoURL,
		job.Location, job.DescriptionHTML, job.DescriptionText, job.JobType,
		job.Industry, job.Salary, job.StartDate, job.EndDate,
		job.ApplyDeadline, job.PostedAt, job.Source, job.SourceURL,
		job.ApplyURL, job.CompanyPageURL, job.CompanyLogo,
		job.QualityScore, job.LastValidated,
	).Scan(&job.Hash, &job.Slug, &job.IsExpired, &job.LastCheckedAt, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return mapError("update", err)
	}
	job.ID = id
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return mapError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteIfUnreferenced(ctx context.Context, id string) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM jobs j
		 WHERE j.id = $1
		   AND NOT EXISTS (SELECT 1 FROM saved_jobs s WHERE s.job_id = j.id::text)`,
		id,
	)
	if err != nil {
		return false, mapError("deleteIfUnreferenced", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) MarkChecked(ctx context.Context, id string, expired *bool, checkedAt time.Time) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE jobs
		 SET last_checked_at = $2,
		     is_expired      = COALESCE($3, is_expired)
		 WHERE id = $1`,
		id, checkedAt, expired,
	)
	if err != nil {
		return mapError("markChecked", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresSavedJobs is the SavedJobStore backed by the saved_jobs table.
type PostgresSavedJobs struct {
	pool *pgxpool.Pool
}

func NewPostgresSavedJobs(pool *pgxpool.Pool) *PostgresSavedJobs {
	return &PostgresSavedJobs{pool: pool}
}

func (p *PostgresSavedJobs) CountByJob(ctx context.Context, jobID string) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM saved_jobs WHERE job_id = $1`, jobID,
	).Scan(&n); err != nil {
		return 0, mapError("countSavedJobs", err)
	}
	return n, nil
}

func (p *PostgresSavedJobs) Repoint(ctx context.Context, from, to string) (int64, error) {
	tag, err := p.pool.Exec(ctx, `UPDATE saved_jobs SET job_id = $2 WHERE job_id = $1`, from, to)
	if err != nil {
		return 0, mapError("repointSavedJobs", err)
	}
	return tag.RowsAffected(), nil
}

// mapError translates driver errors into the store's error vocabulary.
func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return apperrors.Conflict(fmt.Sprintf("%s: duplicate key on %s", op, pgErr.ConstraintName), err)
		case pgerrcode.InvalidTextRepresentation:
			// malformed uuid
			return ErrNotFound
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return apperrors.Unavailable(op+": postgres connection lost", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperrors.Unavailable(op+": postgres unreachable", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
