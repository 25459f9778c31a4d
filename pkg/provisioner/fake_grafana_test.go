// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provisioner

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/NVIDIA/grafana-provisioner/pkg/grafana"
)

const (
	fakeAdminUser     = "admin"
	fakeAdminPassword = "admin-pw"
)

type fakeToken struct {
	id   int64
	name string
	key  string
}

// fakeGrafana is a stateful stand-in for the Grafana API endpoints grafprov
// uses. It keeps accounts, tokens, data sources and dashboards across calls
// so repeated runs can be checked for idempotence.
type fakeGrafana struct {
	mu sync.Mutex

	accounts      map[string]int64
	nextAccountID int64
	tokens        map[int64][]fakeToken
	nextTokenID   int64
	mintedKeys    int
	datasources   map[string]grafana.DataSource
	dashboards    map[string]int
	lastDashboard map[string]any

	// behavior switches
	accountCreateStatus int
	searchAsPage        bool
	searchEmpty         bool
	hideTokens          bool
	forced              map[string]int

	calls      []string
	userAgents []string
}

func newFakeGrafana() *fakeGrafana {
	return &fakeGrafana{
		accounts:            map[string]int64{},
		nextAccountID:       5,
		tokens:              map[int64][]fakeToken{},
		nextTokenID:         1,
		datasources:         map[string]grafana.DataSource{},
		dashboards:          map[string]int{},
		accountCreateStatus: http.StatusCreated,
		forced:              map[string]int{},
	}
}

func (f *fakeGrafana) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv
}

// startTLS serves the fake over HTTPS with a self-signed certificate.
func (f *fakeGrafana) startTLS(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(f)
	t.Cleanup(srv.Close)
	return srv
}

// force makes "METHOD /path" answer with status.
func (f *fakeGrafana) force(method, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced[method+" "+path] = status
}

func (f *fakeGrafana) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGrafana) called(prefix string) bool {
	for _, c := range f.callLog() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (f *fakeGrafana) tokenCount(accountID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens[accountID])
}

func (f *fakeGrafana) validKey(key string) bool {
	for _, toks := range f.tokens {
		for _, t := range toks {
			if t.key == key {
				return true
			}
		}
	}
	return false
}

func (f *fakeGrafana) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, call)
	f.userAgents = append(f.userAgents, r.UserAgent())

	if status, ok := f.forced[call]; ok {
		writeJSON(w, status, map[string]string{"message": "forced failure"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case strings.HasPrefix(r.URL.Path, "/api/serviceaccounts"):
		if u, p, ok := r.BasicAuth(); !ok || u != fakeAdminUser || p != fakeAdminPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid username or password"})
			return
		}
		f.serveAccounts(w, r, parts)

	case r.Method == http.MethodPost && r.URL.Path == grafana.PathDataSources:
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid API key"})
			return
		}
		var ds grafana.DataSource
		_ = json.NewDecoder(r.Body).Decode(&ds)
		if _, exists := f.datasources[ds.Name]; exists {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "data source with the same name already exists"})
			return
		}
		f.datasources[ds.Name] = ds
		writeJSON(w, http.StatusOK, map[string]any{"id": len(f.datasources), "message": "Datasource added"})

	case r.Method == http.MethodPost && r.URL.Path == grafana.PathDashboards:
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid API key"})
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lastDashboard = body
		d, _ := body["dashboard"].(map[string]any)
		title, _ := d["title"].(string)
		if _, exists := f.dashboards[title]; exists && body["overwrite"] != true {
			writeJSON(w, http.StatusPreconditionFailed, map[string]string{"status": "name-exists"})
			return
		}
		f.dashboards[title]++
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      1,
			"uid":     "sre",
			"url":     "/d/sre/automated-sre-dashboard",
			"status":  "success",
			"version": f.dashboards[title],
		})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (f *fakeGrafana) authorized(r *http.Request) bool {
	key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && f.validKey(key)
}

func (f *fakeGrafana) serveAccounts(w http.ResponseWriter, r *http.Request, parts []string) {
	// parts: api serviceaccounts [search | {id} tokens [{tokenId}]]
	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		var req grafana.CreateServiceAccountRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, exists := f.accounts[req.Name]; exists {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "service account already exists"})
			return
		}
		id := f.nextAccountID
		f.nextAccountID++
		f.accounts[req.Name] = id
		writeJSON(w, f.accountCreateStatus, grafana.ServiceAccount{ID: id, Name: req.Name, Role: req.Role})

	case len(parts) == 3 && parts[2] == "search" && r.Method == http.MethodGet:
		name := r.URL.Query().Get("name")
		found := []grafana.ServiceAccount{}
		if !f.searchEmpty {
			if id, ok := f.accounts[name]; ok {
				found = append(found, grafana.ServiceAccount{ID: id, Name: name})
			}
		}
		if f.searchAsPage {
			writeJSON(w, http.StatusOK, grafana.ServiceAccountPage{TotalCount: len(found), ServiceAccounts: found, Page: 1, PerPage: 1000})
			return
		}
		writeJSON(w, http.StatusOK, found)

	case len(parts) >= 4 && parts[3] == "tokens":
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || !f.hasAccount(id) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "service account not found"})
			return
		}
		f.serveTokens(w, r, id, parts)

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (f *fakeGrafana) hasAccount(id int64) bool {
	for _, v := range f.accounts {
		if v == id {
			return true
		}
	}
	return false
}

func (f *fakeGrafana) serveTokens(w http.ResponseWriter, r *http.Request, accountID int64, parts []string) {
	switch {
	case len(parts) == 4 && r.Method == http.MethodPost:
		var req grafana.CreateTokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, t := range f.tokens[accountID] {
			if t.name == req.Name {
				writeJSON(w, http.StatusConflict, map[string]string{"message": "service account token with given name already exists"})
				return
			}
		}
		f.mintedKeys++
		key := "glsa_abc"
		if f.mintedKeys > 1 {
			key = fmt.Sprintf("glsa_abc%d", f.mintedKeys)
		}
		tok := fakeToken{id: f.nextTokenID, name: req.Name, key: key}
		f.nextTokenID++
		f.tokens[accountID] = append(f.tokens[accountID], tok)
		writeJSON(w, http.StatusOK, grafana.Token{ID: tok.id, Name: tok.name, Key: tok.key})

	case len(parts) == 4 && r.Method == http.MethodGet:
		list := []grafana.Token{}
		if !f.hideTokens {
			for _, t := range f.tokens[accountID] {
				list = append(list, grafana.Token{ID: t.id, Name: t.name})
			}
		}
		writeJSON(w, http.StatusOK, list)

	case len(parts) == 5 && r.Method == http.MethodDelete:
		tokenID, _ := strconv.ParseInt(parts[4], 10, 64)
		toks := f.tokens[accountID]
		for i, t := range toks {
			if t.id == tokenID {
				f.tokens[accountID] = append(toks[:i], toks[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]string{"message": "Service account token deleted"})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "token not found"})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
