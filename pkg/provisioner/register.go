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
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/NVIDIA/grafana-provisioner/pkg/dashboard"
	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/grafana"
)

// RegisterDataSource adds the Prometheus data source. An existing data
// source counts as success. Failures carry code REGISTRATION.
func (p *Provisioner) RegisterDataSource(ctx context.Context, token string) error {
	return p.registerDataSource(ctx, p.newReport(), token)
}

func (p *Provisioner) registerDataSource(ctx context.Context, r *Report, token string) error {
	resp, err := p.client.CreateDataSource(ctx, grafana.BearerToken(token), grafana.DataSource{
		Name:      DataSourceName,
		Type:      DataSourceType,
		URL:       p.cfg.PrometheusURL,
		Access:    DataSourceAccess,
		BasicAuth: false,
		JSONData: grafana.DataSourceJSONData{
			TimeInterval: p.cfg.PrometheusTimeInterval,
		},
	})
	if err != nil {
		return p.fail(r, StageDataSource,
			fmt.Sprintf("Failed to add Prometheus data source: %v", err),
			apperrors.Wrap(apperrors.ErrCodeRegistration, "failed to add Prometheus data source", err))
	}

	switch {
	case resp.IsSuccess():
		p.printf("Prometheus data source added successfully.")
		r.record(StageDataSource, OutcomeCreated, p.cfg.PrometheusURL)
		slog.Info("data source added", "name", DataSourceName, "url", p.cfg.PrometheusURL)
		return nil

	case resp.IsConflict():
		p.printf("Prometheus data source already exists.")
		r.record(StageDataSource, OutcomeExists, p.cfg.PrometheusURL)
		return nil

	default:
		return p.fail(r, StageDataSource,
			fmt.Sprintf("Failed to add Prometheus data source: %s", resp.BodyString()),
			registrationError("failed to add Prometheus data source", resp))
	}
}

// PublishDashboard validates the dashboard and saves it with overwrite
// enabled, so repeated runs replace it in place. Failures carry code
// REGISTRATION.
func (p *Provisioner) PublishDashboard(ctx context.Context, token string) error {
	return p.publishDashboard(ctx, p.newReport(), token)
}

func (p *Provisioner) publishDashboard(ctx context.Context, r *Report, token string) error {
	if err := dashboard.Validate(p.dashboard); err != nil {
		return p.fail(r, StageDashboard,
			fmt.Sprintf("Failed to create dashboard: %v", err),
			apperrors.Wrap(apperrors.ErrCodeRegistration, "dashboard failed validation", err))
	}

	saved, resp, err := p.client.SaveDashboard(ctx, grafana.BearerToken(token), grafana.SaveDashboardRequest{
		Dashboard: p.dashboard,
		FolderID:  0,
		Overwrite: true,
	})
	if err != nil {
		return p.fail(r, StageDashboard,
			fmt.Sprintf("Failed to create dashboard: %v", err),
			apperrors.Wrap(apperrors.ErrCodeRegistration, "failed to create dashboard", err))
	}
	if resp.StatusCode != http.StatusOK {
		return p.fail(r, StageDashboard,
			fmt.Sprintf("Failed to create dashboard: %s", resp.BodyString()),
			registrationError("failed to create dashboard", resp))
	}

	p.printf("Dashboard created successfully.")
	r.DashboardURL = saved.URL
	r.record(StageDashboard, OutcomeCreated, p.dashboard.Title)
	slog.Info("dashboard saved", "title", p.dashboard.Title, "uid", saved.UID, "version", saved.Version)
	return nil
}

func registrationError(msg string, resp *grafana.Response) error {
	return apperrors.NewWithContext(apperrors.ErrCodeRegistration,
		fmt.Sprintf("%s: status %d: %s", msg, resp.StatusCode, resp.BodyString()),
		map[string]any{
			"status":     resp.StatusCode,
			"request_id": resp.RequestID,
		})
}
