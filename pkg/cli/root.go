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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/logging"
)

const (
	name           = "grafprov"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitProvisioning = 1
	ExitRegistration = 2
	ExitInvalid      = 3
)

// newRootCmd builds the command tree.
func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Usage:                 "Provision Grafana with a service account, Prometheus data source and SRE dashboard",
		Description: `grafprov prepares a Grafana instance for monitoring in one idempotent run:

  1. creates (or reuses) a service account with the configured role
  2. mints a token for it, replacing a token of the same name
  3. registers Prometheus as a data source
  4. publishes the 8-panel Automated SRE Dashboard

Configuration is read from the environment and an optional .env file.
Run "grafprov provision --help" for the full list of variables.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.EnvVarLogLevel),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		OnUsageError: usageError,
		Commands: []*cli.Command{
			provisionCmd(),
			dashboardCmd(),
		},
	}
}

// Execute runs the CLI with SIGINT/SIGTERM wired to context cancellation
// and exits with the code matching the returned error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().Run(ctx, os.Args)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}

// ExitCode maps an error to the process exit code using its outermost
// structured error code. Unclassified errors exit with ExitProvisioning.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeInvalidRequest:
		return ExitInvalid
	case apperrors.ErrCodeRegistration:
		return ExitRegistration
	default:
		return ExitProvisioning
	}
}

// usageError classifies flag parsing failures as invalid requests.
func usageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid usage", err)
}
