package job

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/segmentio/ksuid"
)

var ErrJobNotFound = errors.New("job not found")

// DuplicateFieldError maps a unique-violation from postgres back to the form
// field it belongs to, so the caller can surface it inline.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("a job with this %s already exists", e.Field)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// Store is the job directory reached by the controllers. *Repository is the
// postgres implementation; tests inject fakes.
type Store interface {
	List(req ListRequest) ([]*JobPost, error)
	Insert(rq *JobRq, ownerID string) (*JobPost, error)
	Update(id, ownerID string, rq *JobRq) error
	Delete(id, ownerID string) error
	GetByID(id string) (*JobPost, error)
	GetBySlug(slug string) (*JobPost, error)
}

func (r *Repository) List(req ListRequest) ([]*JobPost, error) {
	jobs := []*JobPost{}
	var rows *sql.Rows
	var err error
	if req.TitleQuery != "" {
		rows, err = r.db.Query(
			`SELECT id, title, company_name, company_website, location, description, owner_id, slug, created_at
			FROM job
			WHERE to_tsvector('simple', title) @@ to_tsquery('simple', $1)
			ORDER BY created_at DESC
			OFFSET $2 LIMIT $3`,
			req.TitleQuery,
			req.Offset,
			req.Limit,
		)
	} else {
		rows, err = r.db.Query(
			`SELECT id, title, company_name, company_website, location, description, owner_id, slug, created_at
			FROM job
			ORDER BY created_at DESC
			OFFSET $1 LIMIT $2`,
			req.Offset,
			req.Limit,
		)
	}
	if err != nil {
		return jobs, err
	}
	defer rows.Close()
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return jobs, err
	}
	return jobs, nil
}

// ListByOwner returns the acting user's own postings, newest first.
func (r *Repository) ListByOwner(ownerID string, req ListRequest) ([]*JobPost, error) {
	jobs := []*JobPost{}
	rows, err := r.db.Query(
		`SELECT id, title, company_name, company_website, location, description, owner_id, slug, created_at
		FROM job
		WHERE owner_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`,
		ownerID,
		req.Offset,
		req.Limit,
	)
	if err != nil {
		return jobs, err
	}
	defer rows.Close()
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return jobs, err
	}
	return jobs, nil
}

// Insert creates a new posting. The owner is always the acting identity
// passed by the caller, never anything carried in the request body.
func (r *Repository) Insert(rq *JobRq, ownerID string) (*JobPost, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return nil, err
	}
	createdAt := time.Now().UTC()
	slugTitle := slug.Make(fmt.Sprintf("%s %s %d", rq.Title, rq.CompanyName, createdAt.Unix()))
	job := &JobPost{
		ID:             id.String(),
		Title:          rq.Title,
		CompanyName:    rq.CompanyName,
		CompanyWebsite: rq.CompanyWebsite,
		Location:       rq.Location,
		Description:    rq.Description,
		OwnerID:        ownerID,
		Slug:           slugTitle,
		CreatedAt:      createdAt,
	}
	_, err = r.db.Exec(
		`INSERT INTO job (id, title, company_name, company_website, location, description, owner_id, slug, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID,
		job.Title,
		job.CompanyName,
		nullable(job.CompanyWebsite),
		nullable(job.Location),
		job.Description,
		job.OwnerID,
		job.Slug,
		job.CreatedAt,
	)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return job, nil
}

// Update rewrites the mutable fields of an existing posting. id, owner_id,
// slug and created_at are untouchable. The owner_id match in the WHERE
// clause is the store-side ownership rule: a non-owner gets ErrJobNotFound,
// same as a missing record.
func (r *Repository) Update(id, ownerID string, rq *JobRq) error {
	res, err := r.db.Exec(
		`UPDATE job SET title = $1, company_name = $2, company_website = $3, location = $4, description = $5
		WHERE id = $6 AND owner_id = $7`,
		rq.Title,
		rq.CompanyName,
		nullable(rq.CompanyWebsite),
		nullable(rq.Location),
		rq.Description,
		id,
		ownerID,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Delete removes a posting, owner-scoped like Update.
func (r *Repository) Delete(id, ownerID string) error {
	res, err := r.db.Exec(`DELETE FROM job WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *Repository) GetByID(id string) (*JobPost, error) {
	row := r.db.QueryRow(
		`SELECT id, title, company_name, company_website, location, description, owner_id, slug, created_at
		FROM job WHERE id = $1`,
		id,
	)
	return scanJobRow(row)
}

func (r *Repository) GetBySlug(jobSlug string) (*JobPost, error) {
	row := r.db.QueryRow(
		`SELECT id, title, company_name, company_website, location, description, owner_id, slug, created_at
		FROM job WHERE slug = $1`,
		jobSlug,
	)
	return scanJobRow(row)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(s scanner) (*JobPost, error) {
	job := &JobPost{}
	var website, location sql.NullString
	err := s.Scan(
		&job.ID,
		&job.Title,
		&job.CompanyName,
		&website,
		&location,
		&job.Description,
		&job.OwnerID,
		&job.Slug,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if website.Valid {
		job.CompanyWebsite = website.String
	}
	if location.Valid {
		job.Location = location.String
	}
	return job, nil
}

func scanJobRow(row *sql.Row) (*JobPost, error) {
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "job_slug_key":
			return &DuplicateFieldError{Field: "title"}
		default:
			return &DuplicateFieldError{Field: "id"}
		}
	}
	return err
}
