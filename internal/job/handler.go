package job

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/jobdirectory/job-board/internal/authz"
	"github.com/jobdirectory/job-board/internal/confirm"
	"github.com/jobdirectory/job-board/internal/render"
	"github.com/jobdirectory/job-board/internal/server"
)

type jobView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	CompanyName     string    `json:"company_name"`
	CompanyWebsite  string    `json:"company_website,omitempty"`
	Location        string    `json:"location,omitempty"`
	DescriptionHTML string    `json:"description_html"`
	Slug            string    `json:"slug"`
	OwnerID         string    `json:"owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	TimeAgo         string    `json:"time_ago"`
	CanMutate       bool      `json:"can_mutate"`
}

type listResponse struct {
	Jobs          []jobView `json:"jobs"`
	Page          int       `json:"page"`
	CanNext       bool      `json:"can_next"`
	CanPrev       bool      `json:"can_prev"`
	NoResults     bool      `json:"no_results"`
	NoMoreResults bool      `json:"no_more_results"`
}

func toView(j *JobPost, actingID string) jobView {
	return jobView{
		ID:              j.ID,
		Title:           j.Title,
		CompanyName:     j.CompanyName,
		CompanyWebsite:  j.CompanyWebsite,
		Location:        j.Location,
		DescriptionHTML: render.DescriptionToHTML(j.Description),
		Slug:            j.Slug,
		OwnerID:         j.OwnerID,
		CreatedAt:       j.CreatedAt,
		TimeAgo:         humanize.Time(j.CreatedAt),
		CanMutate:       authz.CanMutate(actingID, j.OwnerID),
	}
}

func toListResponse(jobs []*JobPost, page, pageSize int, actingID string) listResponse {
	res := listResponse{
		Jobs:    []jobView{},
		Page:    page,
		CanNext: len(jobs) == pageSize,
		CanPrev: page > 1,
	}
	for _, j := range jobs {
		res.Jobs = append(res.Jobs, toView(j, actingID))
	}
	if len(jobs) == 0 {
		if page > 1 {
			res.NoMoreResults = true
		} else {
			res.NoResults = true
		}
	}
	return res
}

func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ListJobsHandler serves the public, searchable job directory. The first
// unsearched page for anonymous visitors comes out of the cache when warm.
func ListJobsHandler(svr server.Server, jobRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := parsePage(r)
		search := r.URL.Query().Get("search")
		profile := svr.Identities.Current(r)
		actingID := ""
		if profile != nil {
			actingID = profile.ID
		}

		cacheable := page == 1 && search == "" && actingID == ""
		if cacheable {
			if cached, ok := svr.CacheGet(server.CacheKeyFrontPageJobs); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(cached)
				return
			}
		}

		req := BuildListRequest(ListQuery{
			Page:     page,
			PageSize: svr.GetConfig().JobsPerPage,
			Search:   search,
		})
		jobs, err := jobRepo.List(req)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		res := toListResponse(jobs, page, svr.GetConfig().JobsPerPage, actingID)
		if cacheable {
			if body, err := json.Marshal(res); err == nil {
				svr.CacheSet(server.CacheKeyFrontPageJobs, body)
			}
		}
		svr.JSON(w, http.StatusOK, res)
	}
}

// ListOwnJobsHandler serves the authenticated user's own postings.
func ListOwnJobsHandler(svr server.Server, jobRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := svr.Identities.Current(r)
		if profile == nil {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		page := parsePage(r)
		req := BuildListRequest(ListQuery{Page: page, PageSize: svr.GetConfig().JobsPerPage})
		jobs, err := jobRepo.ListByOwner(profile.ID, req)
		if err != nil {
			svr.Log(err, "unable to retrieve own jobs")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		svr.JSON(w, http.StatusOK, toListResponse(jobs, page, svr.GetConfig().JobsPerPage, profile.ID))
	}
}

// JobBySlugHandler serves a single posting. A missing record is a terminal
// not-found display state.
func JobBySlugHandler(svr server.Server, jobRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		profile := svr.Identities.Current(r)
		actingID := ""
		if profile != nil {
			actingID = profile.ID
		}
		jobPost, err := jobRepo.GetBySlug(vars["slug"])
		if errors.Is(err, ErrJobNotFound) {
			svr.JSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve job by slug")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		svr.JSON(w, http.StatusOK, toView(jobPost, actingID))
	}
}

func writeSubmitError(svr server.Server, w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"fields": verr.Fields})
	case errors.Is(err, ErrNotAuthenticated):
		svr.JSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrJobNotFound):
		svr.JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// SubmitJobPostHandler creates a new posting owned by the acting user.
func SubmitJobPostHandler(svr server.Server, jobRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rq JobRq
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		form := NewFormController(jobRepo, currentID(svr, r), func() {
			svr.CacheDelete(server.CacheKeyFrontPageJobs)
		})
		form.Open(CreateIntent(), nil)
		form.SetBuffer(rq)
		if err := form.Submit(); err != nil {
			writeSubmitError(svr, w, err)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type updateJobRq struct {
	ID string `json:"id"`
	JobRq
}

// UpdateJobPostHandler rewrites the mutable fields of an owned posting.
func UpdateJobPostHandler(svr server.Server, jobRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rq updateJobRq
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if rq.ID == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "id cannot be empty"})
			return
		}
		form := NewFormController(jobRepo, currentID(svr, r), func() {
			svr.CacheDelete(server.CacheKeyFrontPageJobs)
		})
		form.Open(UpdateIntent(rq.ID), nil)
		form.SetBuffer(rq.JobRq)
		if err := form.Submit(); err != nil {
			writeSubmitError(svr, w, err)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type deleteJobRq struct {
	ID      string `json:"id"`
	Confirm bool   `json:"confirm"`
	Cancel  bool   `json:"cancel"`
}

// DeleteJobHandler permanently deletes an owned posting behind a two-step
// confirmation: the first request arms the gate and nothing is deleted, a
// second request with confirm=true executes, cancel=true discards.
func DeleteJobHandler(svr server.Server, jobRepo *Repository) http.HandlerFunc {
	var mu sync.Mutex
	gates := map[string]*confirm.Gate{}

	gateFor := func(key string) *confirm.Gate {
		mu.Lock()
		defer mu.Unlock()
		g, ok := gates[key]
		if !ok {
			g = confirm.NewGate()
			gates[key] = g
		}
		return g
	}

	return func(w http.ResponseWriter, r *http.Request) {
		profile := svr.Identities.Current(r)
		if profile == nil {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		var rq deleteJobRq
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if rq.ID == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "id cannot be empty"})
			return
		}
		gate := gateFor(profile.ID + "/" + rq.ID)

		switch {
		case rq.Cancel:
			gate.Cancel()
			svr.JSON(w, http.StatusOK, map[string]string{"state": string(confirm.StateIdle)})
		case rq.Confirm:
			err := gate.Confirm()
			if errors.Is(err, confirm.ErrNothingArmed) {
				svr.JSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
				return
			}
			if errors.Is(err, ErrJobNotFound) {
				svr.JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}
			if err != nil {
				svr.Log(err, "unable to delete job")
				svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			svr.CacheDelete(server.CacheKeyFrontPageJobs)
			svr.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		default:
			state := gate.Submit(func() error {
				return jobRepo.Delete(rq.ID, profile.ID)
			}, nil)
			svr.JSON(w, http.StatusAccepted, map[string]string{"state": string(state)})
		}
	}
}

func currentID(svr server.Server, r *http.Request) func() string {
	return func() string {
		profile := svr.Identities.Current(r)
		if profile == nil {
			return ""
		}
		return profile.ID
	}
}
