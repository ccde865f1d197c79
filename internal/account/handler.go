package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jobdirectory/job-board/internal/confirm"
	"github.com/jobdirectory/job-board/internal/identity"
	"github.com/jobdirectory/job-board/internal/server"
)

var validate = validator.New()

type nameRq struct {
	Name string `json:"name" validate:"required,min=2"`
}

type emailRq struct {
	Email   string `json:"email" validate:"required,email"`
	Confirm bool   `json:"confirm"`
	Cancel  bool   `json:"cancel"`
}

type passwordRq struct {
	Password string `json:"password" validate:"required,min=6"`
	Confirm  bool   `json:"confirm"`
	Cancel   bool   `json:"cancel"`
}

// gateRegistry hands out one confirmation gate per user and action, so an
// armed email change cannot be confirmed by a password submit.
type gateRegistry struct {
	mu    sync.Mutex
	gates map[string]*confirm.Gate
}

func newGateRegistry() *gateRegistry {
	return &gateRegistry{gates: map[string]*confirm.Gate{}}
}

func (g *gateRegistry) gateFor(key string) *confirm.Gate {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate, ok := g.gates[key]
	if !ok {
		gate = confirm.NewGate()
		g.gates[key] = gate
	}
	return gate
}

// UpdateNameHandler changes the display name. Not identity-affecting, so no
// confirmation step and the session survives.
func UpdateNameHandler(svr server.Server, accounts identity.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := svr.Identities.Current(r)
		if profile == nil {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		var rq nameRq
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if err := validate.Struct(rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{
				"fields": map[string]string{"name": "Name must be at least 2 characters"},
			})
			return
		}
		if err := accounts.UpdateName(profile.ID, rq.Name); err != nil {
			svr.Log(err, "unable to update name")
			svr.JSON(w, http.StatusBadGateway, map[string]interface{}{
				"fields": map[string]string{"name": err.Error()},
			})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// UpdateEmailHandler changes the account email behind a confirmation gate.
// A confirmed success terminates the session: the user verifies the new
// address and authenticates again.
func UpdateEmailHandler(svr server.Server, accounts identity.Accounts) http.HandlerFunc {
	gates := newGateRegistry()
	return func(w http.ResponseWriter, r *http.Request) {
		profile := svr.Identities.Current(r)
		if profile == nil {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		var rq emailRq
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		gate := gates.gateFor(profile.ID + "/email")

		if rq.Cancel {
			gate.Cancel()
			svr.JSON(w, http.StatusOK, map[string]string{"state": string(confirm.StateIdle)})
			return
		}
		if err := validate.Struct(rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{
				"fields": map[string]string{"email": "Invalid email address"},
			})
			return
		}
		if !rq.Confirm {
			newEmail := rq.Email
			state := gate.Submit(func() error {
				return accounts.UpdateEmail(profile.ID, newEmail)
			}, nil)
			svr.JSON(w, http.StatusAccepted, map[string]string{"state": string(state)})
			return
		}

		err := gate.Confirm()
		if errors.Is(err, confirm.ErrNothingArmed) {
			svr.JSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			svr.JSON(w, http.StatusBadGateway, map[string]interface{}{
				"fields": map[string]string{"email": err.Error()},
			})
			return
		}
		if err := svr.GetEmail().SendEmailVerificationNotice(rq.Email); err != nil {
			svr.Log(err, "unable to send email verification notice")
		}
		if err := svr.Identities.SignOut(w, r); err != nil {
			svr.Log(err, "unable to terminate session after email change")
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok", "signed_out": "true"})
	}
}

// UpdatePasswordHandler changes the password behind a confirmation gate and
// terminates the session on confirmed success.
func UpdatePasswordHandler(svr server.Server, accounts identity.Accounts) http.HandlerFunc {
	gates := newGateRegistry()
	return func(w http.ResponseWriter, r *http.Request) {
		profile := svr.Identities.Current(r)
		if profile == nil {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		var rq passwordRq
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		gate := gates.gateFor(profile.ID + "/password")

		if rq.Cancel {
			gate.Cancel()
			svr.JSON(w, http.StatusOK, map[string]string{"state": string(confirm.StateIdle)})
			return
		}
		if err := validate.Struct(rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{
				"fields": map[string]string{"password": "Password must be at least 6 characters"},
			})
			return
		}
		if !rq.Confirm {
			newPassword := rq.Password
			state := gate.Submit(func() error {
				return accounts.UpdatePassword(profile.ID, newPassword)
			}, nil)
			svr.JSON(w, http.StatusAccepted, map[string]string{"state": string(state)})
			return
		}

		err := gate.Confirm()
		if errors.Is(err, confirm.ErrNothingArmed) {
			svr.JSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			svr.JSON(w, http.StatusBadGateway, map[string]interface{}{
				"fields": map[string]string{"password": err.Error()},
			})
			return
		}
		if err := svr.Identities.SignOut(w, r); err != nil {
			svr.Log(err, "unable to terminate session after password change")
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok", "signed_out": "true"})
	}
}
