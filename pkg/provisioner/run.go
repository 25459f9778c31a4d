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
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
)

// Stage names one provisioning step.
type Stage string

const (
	StageServiceAccount Stage = "service-account"
	StageToken          Stage = "token"
	StageDataSource     Stage = "datasource"
	StageDashboard      Stage = "dashboard"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageServiceAccount, StageToken, StageDataSource, StageDashboard}

// Outcome is the result of one stage.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeExists    Outcome = "exists"
	OutcomeRecreated Outcome = "recreated"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// StageResult records what happened in one stage.
type StageResult struct {
	Stage   Stage   `json:"stage" yaml:"stage"`
	Outcome Outcome `json:"outcome" yaml:"outcome"`
	Message string  `json:"message,omitempty" yaml:"message,omitempty"`
}

// Report summarizes a run. It never contains the token secret.
type Report struct {
	GrafanaURL       string        `json:"grafanaUrl" yaml:"grafanaUrl"`
	ServiceAccount   string        `json:"serviceAccount" yaml:"serviceAccount"`
	ServiceAccountID int64         `json:"serviceAccountId,omitempty" yaml:"serviceAccountId,omitempty"`
	Dashboard        string        `json:"dashboard" yaml:"dashboard"`
	DashboardURL     string        `json:"dashboardUrl,omitempty" yaml:"dashboardUrl,omitempty"`
	TokenOutput      string        `json:"tokenOutput,omitempty" yaml:"tokenOutput,omitempty"`
	StartedAt        time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration         string        `json:"duration" yaml:"duration"`
	Stages           []StageResult `json:"stages" yaml:"stages"`
}

func (p *Provisioner) newReport() *Report {
	return &Report{
		GrafanaURL:     p.cfg.URL,
		ServiceAccount: p.cfg.ServiceAccountName,
		Dashboard:      p.dashboard.Title,
		StartedAt:      time.Now().UTC(),
	}
}

func (r *Report) record(stage Stage, outcome Outcome, message string) {
	r.Stages = append(r.Stages, StageResult{Stage: stage, Outcome: outcome, Message: message})
	stageTotal.WithLabelValues(string(stage), string(outcome)).Inc()
}

// skipRest marks every stage without a result as skipped.
func (r *Report) skipRest(reason string) {
	for _, s := range Stages {
		if _, ok := r.Stage(s); !ok {
			r.record(s, OutcomeSkipped, reason)
		}
	}
}

// Stage returns the result recorded for s.
func (r *Report) Stage(s Stage) (StageResult, bool) {
	for _, res := range r.Stages {
		if res.Stage == s {
			return res, true
		}
	}
	return StageResult{}, false
}

// Succeeded reports whether every stage completed without failure or skip.
func (r *Report) Succeeded() bool {
	if len(r.Stages) != len(Stages) {
		return false
	}
	for _, res := range r.Stages {
		if res.Outcome == OutcomeFailed || res.Outcome == OutcomeSkipped {
			return false
		}
	}
	return true
}

// ObjectKind names the report in ConfigMap output.
func (r *Report) ObjectKind() string { return "report" }

// TableRows renders the stage results as rows for table output.
func (r *Report) TableRows() ([]string, [][]string) {
	rows := make([][]string, 0, len(r.Stages))
	for _, res := range r.Stages {
		rows = append(rows, []string{string(res.Stage), string(res.Outcome), res.Message})
	}
	return []string{"STAGE", "OUTCOME", "MESSAGE"}, rows
}

// Run executes every stage in order and returns the report with the most
// severe error. Only the service account and token stages abort the run;
// data source and dashboard failures are reported after both are attempted.
func (p *Provisioner) Run(ctx context.Context) (*Report, error) {
	r := p.newReport()
	start := time.Now()
	defer func() {
		r.Duration = time.Since(start).Round(time.Millisecond).String()
	}()

	if err := p.wait(ctx); err != nil {
		r.skipRest("interrupted before start")
		return r, apperrors.Wrap(apperrors.ErrCodeProvisioning, "interrupted before provisioning started", err)
	}

	token, err := p.ensureToken(ctx, r)
	if err != nil {
		p.printf("Failed to create service account and token.")
		r.skipRest("no token")
		return r, err
	}

	var storeErr error
	if p.sink != nil {
		if err := p.sink.Store(ctx, token); err != nil {
			p.printf("Failed to store service account token: %v", err)
			slog.Error("failed to store token", "destination", p.sink.String(), "error", err)
			storeErr = apperrors.Wrap(apperrors.ErrCodeProvisioning, "failed to store service account token", err)
		} else {
			r.TokenOutput = p.sink.String()
		}
	}

	var regErrs []error
	if err := p.registerDataSource(ctx, r, token); err != nil {
		regErrs = append(regErrs, err)
	}
	if err := p.publishDashboard(ctx, r, token); err != nil {
		regErrs = append(regErrs, err)
	}

	switch {
	case storeErr != nil:
		return r, storeErr
	case len(regErrs) == 1:
		return r, regErrs[0]
	case len(regErrs) > 1:
		return r, apperrors.Wrap(apperrors.ErrCodeRegistration,
			fmt.Sprintf("%d registration stages failed", len(regErrs)), stderrors.Join(regErrs...))
	}

	slog.Info("provisioning complete", "grafana", p.cfg.URL, "service_account_id", r.ServiceAccountID)
	return r, nil
}

// wait sleeps for the configured startup delay unless ctx ends first.
func (p *Provisioner) wait(ctx context.Context) error {
	d := p.cfg.StartupDelay
	if d <= 0 {
		return nil
	}

	p.printf("Starting in %s...", humanDelay(d))

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func humanDelay(d time.Duration) string {
	if d%time.Second == 0 {
		n := int(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}
