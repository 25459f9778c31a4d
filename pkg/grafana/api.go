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

package grafana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// API paths.
const (
	PathServiceAccounts      = "/api/serviceaccounts"
	PathServiceAccountSearch = "/api/serviceaccounts/search"
	PathDataSources          = "/api/datasources"
	PathDashboards           = "/api/dashboards/db"
)

// ServiceAccount is a Grafana service account.
type ServiceAccount struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Login      string `json:"login,omitempty"`
	Role       string `json:"role,omitempty"`
	IsDisabled bool   `json:"isDisabled,omitempty"`
}

// CreateServiceAccountRequest is the body of POST /api/serviceaccounts.
type CreateServiceAccountRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// ServiceAccountPage is Grafana's paged search response.
type ServiceAccountPage struct {
	TotalCount      int              `json:"totalCount"`
	ServiceAccounts []ServiceAccount `json:"serviceAccounts"`
	Page            int              `json:"page"`
	PerPage         int              `json:"perPage"`
}

// Token is a service account token. Key is only set in the create response.
type Token struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key,omitempty"`
}

// CreateTokenRequest is the body of POST /api/serviceaccounts/{id}/tokens.
type CreateTokenRequest struct {
	Name string `json:"name"`
}

// DataSourceJSONData holds the prometheus-specific data source settings.
type DataSourceJSONData struct {
	TimeInterval string `json:"timeInterval,omitempty"`
}

// DataSource is the body of POST /api/datasources.
type DataSource struct {
	Name      string             `json:"name"`
	Type      string             `json:"type"`
	URL       string             `json:"url"`
	Access    string             `json:"access"`
	BasicAuth bool               `json:"basicAuth"`
	JSONData  DataSourceJSONData `json:"jsonData"`
}

// SaveDashboardRequest is the body of POST /api/dashboards/db.
type SaveDashboardRequest struct {
	Dashboard any  `json:"dashboard"`
	FolderID  int  `json:"folderId"`
	Overwrite bool `json:"overwrite"`
}

// SaveDashboardResponse is what Grafana returns for a saved dashboard.
type SaveDashboardResponse struct {
	ID      int64  `json:"id"`
	UID     string `json:"uid"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	Version int    `json:"version"`
}

// CreateServiceAccount posts a new service account. The account is decoded
// only on a 2xx response.
func (c *Client) CreateServiceAccount(ctx context.Context, auth Auth, req CreateServiceAccountRequest) (*ServiceAccount, *Response, error) {
	resp, err := c.Do(ctx, http.MethodPost, PathServiceAccounts, auth, req)
	if err != nil {
		return nil, nil, err
	}
	if !resp.IsSuccess() {
		return nil, resp, nil
	}
	var sa ServiceAccount
	if err := resp.Decode(&sa); err != nil {
		return nil, resp, err
	}
	return &sa, resp, nil
}

// SearchServiceAccounts looks accounts up by name. Grafana answers with
// either a plain array or a page object; both are accepted.
func (c *Client) SearchServiceAccounts(ctx context.Context, auth Auth, name string) ([]ServiceAccount, *Response, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("query", name)

	resp, err := c.Do(ctx, http.MethodGet, PathServiceAccountSearch+"?"+q.Encode(), auth, nil)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp, nil
	}
	accounts, err := decodeServiceAccounts(resp.Body)
	if err != nil {
		return nil, resp, err
	}
	return accounts, resp, nil
}

func decodeServiceAccounts(body []byte) ([]ServiceAccount, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty service account search response")
	}

	if trimmed[0] == '[' {
		var list []ServiceAccount
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode service account list: %w", err)
		}
		return list, nil
	}

	var page ServiceAccountPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode service account page: %w", err)
	}
	return page.ServiceAccounts, nil
}

// CreateToken mints a token for the service account. The token, including its
// one-time key, is decoded only on a 2xx response.
func (c *Client) CreateToken(ctx context.Context, auth Auth, accountID int64, req CreateTokenRequest) (*Token, *Response, error) {
	resp, err := c.Do(ctx, http.MethodPost, tokensPath(accountID), auth, req)
	if err != nil {
		return nil, nil, err
	}
	if !resp.IsSuccess() {
		return nil, resp, nil
	}
	var tok Token
	if err := resp.Decode(&tok); err != nil {
		return nil, resp, err
	}
	return &tok, resp, nil
}

// ListTokens lists the tokens of a service account. Listed tokens carry no key.
func (c *Client) ListTokens(ctx context.Context, auth Auth, accountID int64) ([]Token, *Response, error) {
	resp, err := c.Do(ctx, http.MethodGet, tokensPath(accountID), auth, nil)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp, nil
	}
	var tokens []Token
	if err := resp.Decode(&tokens); err != nil {
		return nil, resp, err
	}
	return tokens, resp, nil
}

// DeleteToken revokes a token by id.
func (c *Client) DeleteToken(ctx context.Context, auth Auth, accountID, tokenID int64) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", tokensPath(accountID), tokenID), auth, nil)
}

// CreateDataSource registers a data source. The caller interprets the status.
func (c *Client) CreateDataSource(ctx context.Context, auth Auth, ds DataSource) (*Response, error) {
	return c.Do(ctx, http.MethodPost, PathDataSources, auth, ds)
}

// SaveDashboard creates or overwrites a dashboard.
func (c *Client) SaveDashboard(ctx context.Context, auth Auth, req SaveDashboardRequest) (*SaveDashboardResponse, *Response, error) {
	resp, err := c.Do(ctx, http.MethodPost, PathDashboards, auth, req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp, nil
	}
	var saved SaveDashboardResponse
	if err := resp.Decode(&saved); err != nil {
		// A 200 is a success even when the body is not what we expect.
		return &SaveDashboardResponse{}, resp, nil
	}
	return &saved, resp, nil
}

func tokensPath(accountID int64) string {
	return fmt.Sprintf("%s/%d/tokens", PathServiceAccounts, accountID)
}
