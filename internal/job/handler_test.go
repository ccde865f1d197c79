package job

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdirectory/job-board/internal/config"
	"github.com/jobdirectory/job-board/internal/email"
	"github.com/jobdirectory/job-board/internal/identity"
	"github.com/jobdirectory/job-board/internal/server"
)

var testJWTKey = []byte("test-signing-key")

func newTestServer(t *testing.T) server.Server {
	t.Helper()
	cfg := config.Config{
		Env:           "dev",
		JobsPerPage:   10,
		JwtSigningKey: testJWTKey,
		SessionKey:    []byte("test-session-key"),
	}
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	return server.NewServer(cfg, nil, mux.NewRouter(), email.Client{}, sessionStore)
}

func authedRequest(t *testing.T, svr server.Server, method, target, body, userID string) *http.Request {
	t.Helper()
	claims := &identity.Claims{
		UserID: userID,
		Email:  userID + "@example.com",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testJWTKey)
	require.NoError(t, err)

	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := svr.SessionStore.Get(seed, identity.SessionCookieName)
	require.NoError(t, err)
	sess.Values["jwt"] = tokenStr
	rec := httptest.NewRecorder()
	require.NoError(t, sess.Save(seed, rec))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestDeleteHandlerTwoStep(t *testing.T) {
	svr := newTestServer(t)
	repo, mock := newMockRepo(t)
	handler := DeleteJobHandler(svr, repo)

	// first submit arms the gate, zero store calls
	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, svr, http.MethodPost, "/x/j/d", `{"id":"j1"}`, "u1"))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	var armed map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &armed))
	assert.Equal(t, "awaiting-confirmation", armed["state"])
	assert.NoError(t, mock.ExpectationsWereMet(), "no store call before confirmation")

	// explicit confirmation performs exactly one delete
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM job")).
		WithArgs("j1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, svr, http.MethodPost, "/x/j/d", `{"id":"j1","confirm":true}`, "u1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())

	// nothing left armed
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, svr, http.MethodPost, "/x/j/d", `{"id":"j1","confirm":true}`, "u1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteHandlerCancelDiscards(t *testing.T) {
	svr := newTestServer(t)
	repo, mock := newMockRepo(t)
	handler := DeleteJobHandler(svr, repo)

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, svr, http.MethodPost, "/x/j/d", `{"id":"j1"}`, "u1"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, svr, http.MethodPost, "/x/j/d", `{"id":"j1","cancel":true}`, "u1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, svr, http.MethodPost, "/x/j/d", `{"id":"j1","confirm":true}`, "u1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "cancelled delete must never reach the store")
}

func TestDeleteHandlerRequiresAuth(t *testing.T) {
	svr := newTestServer(t)
	repo, _ := newMockRepo(t)
	handler := DeleteJobHandler(svr, repo)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/x/j/d", strings.NewReader(`{"id":"j1"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListJobsHandlerEnvelope(t *testing.T) {
	svr := newTestServer(t)
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(jobColumns())
	for i := 0; i < 10; i++ {
		rows.AddRow("j", "Senior Backend Engineer", "Acme", nil, nil, "desc long enough for listing", "owner", "slug", time.Now())
	}
	mock.ExpectQuery(regexp.QuoteMeta("to_tsquery('simple', $1)")).
		WithArgs("senior & engineer", 10, 10).
		WillReturnRows(rows)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs?page=2&search=senior+engineer", nil)
	ListJobsHandler(svr, repo)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Page)
	assert.True(t, res.CanNext, "full window offers a next page")
	assert.True(t, res.CanPrev)
	assert.Len(t, res.Jobs, 10)
	assert.False(t, res.Jobs[0].CanMutate, "anonymous visitor cannot mutate")
}

func TestListJobsHandlerNoMoreResults(t *testing.T) {
	svr := newTestServer(t)
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(jobColumns()))

	rec := httptest.NewRecorder()
	ListJobsHandler(svr, repo)(rec, httptest.NewRequest(http.MethodGet, "/jobs?page=3", nil))

	var res listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.NoMoreResults)
	assert.False(t, res.NoResults)
	assert.False(t, res.CanNext)
}

func TestSubmitJobPostHandlerValidation(t *testing.T) {
	svr := newTestServer(t)
	repo, mock := newMockRepo(t)

	rec := httptest.NewRecorder()
	body := `{"title":"Dev","company_name":"A","description":"short"}`
	SubmitJobPostHandler(svr, repo)(rec, authedRequest(t, svr, http.MethodPost, "/x/s", body, "u1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var res struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res.Fields, "title")
	assert.NoError(t, mock.ExpectationsWereMet(), "validation failures never reach the store")
}

func TestSubmitJobPostHandlerRequiresAuth(t *testing.T) {
	svr := newTestServer(t)
	repo, _ := newMockRepo(t)

	rec := httptest.NewRecorder()
	body := `{"title":"Senior Backend Engineer","company_name":"Acme","description":"We are hiring a senior backend engineer"}`
	SubmitJobPostHandler(svr, repo)(rec, httptest.NewRequest(http.MethodPost, "/x/s", strings.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitJobPostHandlerInsertsWithOwner(t *testing.T) {
	svr := newTestServer(t)
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO job")).
		WithArgs(
			sqlmock.AnyArg(),
			"Senior Backend Engineer",
			"Acme",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"We are hiring a senior backend engineer",
			"u1",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := httptest.NewRecorder()
	body := `{"title":"Senior Backend Engineer","company_name":"Acme","description":"We are hiring a senior backend engineer"}`
	SubmitJobPostHandler(svr, repo)(rec, authedRequest(t, svr, http.MethodPost, "/x/s", body, "u1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
