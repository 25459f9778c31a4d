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
	"io"
	"os"

	"github.com/NVIDIA/grafana-provisioner/pkg/config"
	"github.com/NVIDIA/grafana-provisioner/pkg/dashboard"
	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/grafana"
)

// Data source constants.
const (
	DataSourceName   = "Prometheus"
	DataSourceType   = "prometheus"
	DataSourceAccess = "proxy"
)

// TokenSink receives the minted token secret, which Grafana shows only once.
type TokenSink interface {
	Store(ctx context.Context, token string) error
	String() string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// Provisioner drives the service account, token, data source and dashboard
// stages against one Grafana instance.
type Provisioner struct {
	cfg       *config.Config
	client    *grafana.Client
	out       io.Writer
	dashboard *dashboard.Dashboard
	sink      TokenSink
	userAgent string
}

// WithClient uses the given Grafana client instead of one built from config.
func WithClient(c *grafana.Client) Option {
	return func(p *Provisioner) {
		p.client = c
	}
}

// WithOutput sets where status lines are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(p *Provisioner) {
		p.out = w
	}
}

// WithDashboard publishes d instead of the default dashboard.
func WithDashboard(d *dashboard.Dashboard) Option {
	return func(p *Provisioner) {
		p.dashboard = d
	}
}

// WithTokenSink persists the minted token after the token stage.
func WithTokenSink(s TokenSink) Option {
	return func(p *Provisioner) {
		p.sink = s
	}
}

// WithUserAgent sets the User-Agent of the Grafana client built from config.
func WithUserAgent(userAgent string) Option {
	return func(p *Provisioner) {
		p.userAgent = userAgent
	}
}

// New returns a Provisioner for cfg.
func New(cfg *config.Config, opts ...Option) (*Provisioner, error) {
	if cfg == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "config is required")
	}

	p := &Provisioner{
		cfg: cfg,
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		clientOpts := []grafana.Option{
			grafana.WithTimeout(cfg.HTTPTimeout),
			grafana.WithRetry(cfg.MaxRetries, cfg.RetryInterval),
			grafana.WithMaxRetryElapsed(cfg.MaxRetryElapsed),
			grafana.WithRateLimit(cfg.RateLimit, burstFor(cfg.RateLimit)),
			grafana.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		}
		if p.userAgent != "" {
			clientOpts = append(clientOpts, grafana.WithUserAgent(p.userAgent))
		}
		c, err := grafana.NewClient(cfg.URL, clientOpts...)
		if err != nil {
			return nil, err
		}
		p.client = c
	}

	if p.dashboard == nil {
		opts := dashboard.DefaultOptions()
		opts.Title = cfg.DashboardTitle
		opts.Datasource = DataSourceName
		d, err := dashboard.Default(opts)
		if err != nil {
			return nil, err
		}
		p.dashboard = d
	}

	return p, nil
}

func burstFor(rps float64) int {
	if rps < 1 {
		return 1
	}
	return int(rps)
}

func (p *Provisioner) admin() grafana.Auth {
	return grafana.BasicAuth{User: p.cfg.AdminUser, Password: p.cfg.AdminPassword}
}

// printf writes a console status line.
func (p *Provisioner) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}
