package job

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func jobColumns() []string {
	return []string{"id", "title", "company_name", "company_website", "location", "description", "owner_id", "slug", "created_at"}
}

func TestListWithoutSearchUsesOffsetAndLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	createdAt := time.Now().UTC()

	rows := sqlmock.NewRows(jobColumns()).
		AddRow("j1", "Senior Backend Engineer", "Acme", "https://acme.dev", "Remote", "Long enough description here", "u1", "senior-backend-engineer-acme-1", createdAt)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(10, 10).
		WillReturnRows(rows)

	jobs, err := repo.List(ListRequest{Offset: 10, Limit: 10, OrderBy: "created_at DESC"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].ID)
	assert.Equal(t, "https://acme.dev", jobs[0].CompanyWebsite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithSearchAppliesTitlePredicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("to_tsquery('simple', $1)")).
		WithArgs("senior & engineer", 0, 10).
		WillReturnRows(sqlmock.NewRows(jobColumns()))

	jobs, err := repo.List(ListRequest{Offset: 0, Limit: 10, TitleQuery: "senior & engineer"})
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNullWebsiteAndLocation(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(jobColumns()).
		AddRow("j2", "Platform Engineer", "Beta", nil, nil, "Another long enough description", "u2", "platform-engineer-beta-2", time.Now())
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	jobs, err := repo.List(ListRequest{Offset: 0, Limit: 10})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Empty(t, jobs[0].CompanyWebsite)
	assert.Empty(t, jobs[0].Location)
}

func TestInsertStampsOwnerAndImmutableFields(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO job")).
		WithArgs(
			sqlmock.AnyArg(), // ksuid id
			"Senior Backend Engineer",
			"Acme",
			sql.NullString{String: "https://acme.dev", Valid: true},
			sql.NullString{String: "Remote", Valid: true},
			"We are hiring a senior backend engineer",
			"u1",
			sqlmock.AnyArg(), // slug
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job, err := repo.Insert(&JobRq{
		Title:          "Senior Backend Engineer",
		CompanyName:    "Acme",
		CompanyWebsite: "https://acme.dev",
		Location:       "Remote",
		Description:    "We are hiring a senior backend engineer",
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", job.OwnerID)
	assert.NotEmpty(t, job.ID)
	assert.NotEmpty(t, job.Slug)
	assert.False(t, job.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateScopedToOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE job SET")).
		WithArgs(
			"New Title Here",
			"Acme",
			sql.NullString{},
			sql.NullString{},
			"Updated description long enough here",
			"j1",
			"u1",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update("j1", "u1", &JobRq{
		Title:       "New Title Here",
		CompanyName: "Acme",
		Description: "Updated description long enough here",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByNonOwnerReturnsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE job SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update("j1", "intruder", &JobRq{
		Title:       "New Title Here",
		CompanyName: "Acme",
		Description: "Updated description long enough here",
	})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestDeleteScopedToOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM job WHERE id = $1 AND owner_id = $2")).
		WithArgs("j1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete("j1", "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingReturnsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM job")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete("missing", "u1"), ErrJobNotFound)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM job WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestInsertMapsUniqueViolationToField(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO job")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "job_slug_key"})

	_, err := repo.Insert(&JobRq{
		Title:       "Senior Backend Engineer",
		CompanyName: "Acme",
		Description: "We are hiring a senior backend engineer",
	}, "u1")

	var dup *DuplicateFieldError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "title", dup.Field)
}
