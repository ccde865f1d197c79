package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/jobdirectory/job-board/internal/config"
)

// HTTPAccounts talks to the external auth service's admin API. Each call is
// one request/response mutation; the auth service owns verification emails,
// token exchange and everything else around the change.
type HTTPAccounts struct {
	client  http.Client
	baseURL string
	token   string
}

func NewHTTPAccounts(cfg config.Config) *HTTPAccounts {
	return &HTTPAccounts{
		client:  *http.DefaultClient,
		baseURL: cfg.AuthServiceURL,
		token:   cfg.AuthServiceToken,
	}
}

func (a *HTTPAccounts) UpdateName(userID, fullName string) error {
	return a.patchUser(userID, map[string]string{"full_name": fullName})
}

func (a *HTTPAccounts) UpdateEmail(userID, email string) error {
	return a.patchUser(userID, map[string]string{"email": email})
}

func (a *HTTPAccounts) UpdatePassword(userID, password string) error {
	return a.patchUser(userID, map[string]string{"password": password})
}

func (a *HTTPAccounts) patchUser(userID string, fields map[string]string) error {
	reqData, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/v1/users/%s", a.baseURL, userID), bytes.NewReader(reqData))
	if err != nil {
		return err
	}
	req.Header.Add("authorization", "Bearer "+a.token)
	req.Header.Add("content-type", "application/json")
	res, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		errBody, err := io.ReadAll(res.Body)
		if err != nil {
			errBody = []byte(`unable to read body`)
		}
		return errors.New(fmt.Sprintf("got status code %d when updating user: err %s", res.StatusCode, string(errBody)))
	}
	return nil
}
