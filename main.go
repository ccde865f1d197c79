package main

import (
	"log"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/jobdirectory/job-board/internal/account"
	"github.com/jobdirectory/job-board/internal/config"
	"github.com/jobdirectory/job-board/internal/database"
	"github.com/jobdirectory/job-board/internal/email"
	"github.com/jobdirectory/job-board/internal/identity"
	"github.com/jobdirectory/job-board/internal/job"
	"github.com/jobdirectory/job-board/internal/middleware"
	"github.com/jobdirectory/job-board/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
	}
	conn, err := database.GetDbConn(cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)
	emailClient, err := email.NewClient(cfg.EmailAPIKey, cfg.SupportEmail, cfg.NoReplyEmail, cfg.SiteName)
	if err != nil {
		log.Fatalf("unable to initialise email client: %v", err)
	}
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)

	svr := server.NewServer(
		cfg,
		conn,
		mux.NewRouter(),
		emailClient,
		sessionStore,
	)

	jobRepo := job.NewRepository(conn)
	accounts := identity.NewHTTPAccounts(cfg)

	// public job directory
	svr.RegisterRoute("/jobs", job.ListJobsHandler(svr, jobRepo), []string{"GET"})

	// view job by slug
	svr.RegisterRoute("/job/{slug}", job.JobBySlugHandler(svr, jobRepo), []string{"GET"})

	// submit job post
	svr.RegisterRoute("/x/s", job.SubmitJobPostHandler(svr, jobRepo), []string{"POST"})

	// update job post
	svr.RegisterRoute("/x/u", job.UpdateJobPostHandler(svr, jobRepo), []string{"POST"})

	// delete job post (two-step confirmation)
	svr.RegisterRoute("/x/j/d", job.DeleteJobHandler(svr, jobRepo), []string{"POST"})

	// list own job posts
	svr.RegisterRoute(
		"/manage/list",
		middleware.UserAuthenticatedMiddleware(svr.Identities, job.ListOwnJobsHandler(svr, jobRepo)),
		[]string{"GET"},
	)

	//
	// account routes
	//

	svr.RegisterRoute("/x/account/name", account.UpdateNameHandler(svr, accounts), []string{"POST"})
	svr.RegisterRoute("/x/account/email", account.UpdateEmailHandler(svr, accounts), []string{"POST"})
	svr.RegisterRoute("/x/account/password", account.UpdatePasswordHandler(svr, accounts), []string{"POST"})

	log.Fatal(svr.Run())
}
