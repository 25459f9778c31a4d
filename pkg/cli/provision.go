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

package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/grafana-provisioner/pkg/config"
	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/provisioner"
	"github.com/NVIDIA/grafana-provisioner/pkg/serializer"
	"github.com/NVIDIA/grafana-provisioner/pkg/tokenstore"
)

func provisionCmd() *cli.Command {
	return &cli.Command{
		Name:                  "provision",
		EnableShellCompletion: true,
		Usage:                 "Create the service account, token, data source and dashboard",
		Description: `Runs the full provisioning sequence against Grafana. Every step is
idempotent: an existing service account is reused, an existing token with the
same name is replaced, an existing data source is left alone and the dashboard
is overwritten in place.

# Environment

  GRAFANA_URL                    Grafana base URL (required)
  GRAFANA_ADMIN_USER             Admin user for basic auth (required)
  GRAFANA_ADMIN_PASSWORD         Admin password for basic auth (required)
  GRAFANA_SERVICE_ACCOUNT_NAME   Service account name (required)
  GRAFANA_SERVICE_ACCOUNT_ROLE   Admin, Editor, Viewer or None (required)
  GRAFANA_TOKEN_NAME             Token name (default: automated_sre_token)
  PROMETHEUS_URL                 Data source URL (default: http://prometheus:9090)
  PROMETHEUS_TIME_INTERVAL       Data source scrape interval (default: 5s)
  GRAFANA_DASHBOARD_TITLE        Dashboard title (default: Automated SRE Dashboard)
  STARTUP_DELAY                  Pause before the first request (default: 5s)
  GRAFANA_HTTP_TIMEOUT           Per-request timeout (default: 30s)
  GRAFANA_MAX_RETRIES            Retries for transient failures (default: 3)
  GRAFANA_RETRY_INTERVAL         First retry backoff (default: 500ms)
  GRAFANA_RATE_LIMIT             Requests per second (default: 10)
  GRAFANA_MAX_RETRY_ELAPSED      Total retry time per request (default: 60s)
  GRAFANA_INSECURE_SKIP_VERIFY   Skip TLS verification for Grafana (default: false)

# Exit Codes

  0  all stages succeeded
  1  service account or token stage failed
  2  data source or dashboard stage failed
  3  invalid configuration or usage

# Examples

Provision and keep the token in a Kubernetes Secret:
  grafprov provision --token-output secret://monitoring/grafana-sre-token

Write a run report to a ConfigMap and metrics for node_exporter:
  grafprov provision --report cm://monitoring/grafprov-report \
    --metrics-file /var/lib/node_exporter/grafprov.prom`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "grafana-url",
				Usage: "Grafana base URL (overrides GRAFANA_URL)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file to load (default: .env in the working directory, if present)",
			},
			&cli.DurationFlag{
				Name:  "startup-delay",
				Usage: "Pause before the first request (overrides STARTUP_DELAY)",
			},
			&cli.StringFlag{
				Name:    "token-output",
				Usage:   "Where to store the minted token: file path or Secret URI (secret://namespace/name)",
				Sources: cli.EnvVars("GRAFPROV_TOKEN_OUTPUT"),
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a run report to a file path, ConfigMap URI (cm://namespace/name) or - for stdout",
			},
			formatFlag(string(serializer.FormatYAML), serializer.FormatJSON, serializer.FormatYAML, serializer.FormatTable),
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics in textfile collector format to this path",
			},
			dashboardFileFlag(),
		},
		OnUsageError: usageError,
		Action:       runProvision,
	}
}

func runProvision(ctx context.Context, cmd *cli.Command) error {
	format, err := parseOutputFormat(cmd, serializer.FormatJSON, serializer.FormatYAML, serializer.FormatTable)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configOptions(cmd)...)
	if err != nil {
		return err
	}
	slog.Debug("configuration loaded", "config", cfg)

	sink, err := tokenSink(cmd.String("token-output"))
	if err != nil {
		return err
	}

	opts := []provisioner.Option{
		provisioner.WithOutput(cmd.Root().Writer),
		provisioner.WithUserAgent(name + "/" + version),
	}
	if sink != nil {
		opts = append(opts, provisioner.WithTokenSink(sink))
	}
	if path := cmd.String("dashboard-file"); path != "" {
		d, loadErr := loadDashboard(ctx, path, cfg.DashboardTitle)
		if loadErr != nil {
			return loadErr
		}
		opts = append(opts, provisioner.WithDashboard(d))
	}

	// Opened before any Grafana call so a bad destination changes nothing.
	var reportOut serializer.Serializer
	if dest := cmd.String("report"); dest != "" {
		ser, closeReport, openErr := openOutput(format, dest)
		if openErr != nil {
			return openErr
		}
		defer closeReport()
		reportOut = ser
	}

	p, err := provisioner.New(cfg, opts...)
	if err != nil {
		return err
	}

	report, runErr := p.Run(ctx)

	if reportOut != nil {
		// Report even when the run failed; a write failure never masks runErr.
		if err := reportOut.Serialize(ctx, report); err != nil {
			slog.Error("failed to write report", "destination", cmd.String("report"), "error", err)
			if runErr == nil {
				runErr = apperrors.Wrap(apperrors.ErrCodeInternal, "failed to write report", err)
			}
		}
	}

	if path := cmd.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			slog.Error("failed to write metrics", "path", path, "error", err)
			if runErr == nil {
				runErr = apperrors.Wrap(apperrors.ErrCodeInternal, "failed to write metrics file", err)
			}
		}
	}

	return runErr
}

// tokenSink returns where the minted token goes, or nil when dest is empty.
func tokenSink(dest string) (provisioner.TokenSink, error) {
	dest = strings.TrimSpace(dest)
	switch {
	case dest == "":
		return nil, nil
	case tokenstore.IsSecretURI(dest):
		return tokenstore.NewSecretSink(dest)
	default:
		return tokenstore.NewFileSink(dest)
	}
}

// configOptions turns the command's flags into config.Load options. Flags
// only override the environment when set explicitly.
func configOptions(cmd *cli.Command) []config.Option {
	var opts []config.Option

	if path := cmd.String("env-file"); path != "" {
		opts = append(opts, config.WithEnvFile(path))
	}

	opts = append(opts, config.WithOverride(func(c *config.Config) {
		if cmd.IsSet("grafana-url") {
			c.URL = cmd.String("grafana-url")
		}
		if cmd.IsSet("startup-delay") {
			c.StartupDelay = cmd.Duration("startup-delay")
		}
	}))

	return opts
}
