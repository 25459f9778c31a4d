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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/grafana-provisioner/pkg/dashboard"
	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/serializer"
)

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output destination: file path, ConfigMap URI (cm://namespace/name), or stdout (default)",
	}
}

func dashboardFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "dashboard-file",
		Aliases: []string{"f"},
		Usage: `Path/URI to a dashboard document (JSON or YAML) to use instead of the built-in one.
	Supports: file paths or ConfigMap URIs (cm://namespace/name).`,
	}
}

func titleFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "title",
		Usage:   "Dashboard title",
		Value:   dashboard.DefaultTitle,
		Sources: cli.EnvVars("GRAFANA_DASHBOARD_TITLE"),
	}
}

func formatFlag(value string, allowed ...serializer.Format) *cli.StringFlag {
	names := make([]string, 0, len(allowed))
	for _, f := range allowed {
		names = append(names, string(f))
	}
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   value,
		Usage:   fmt.Sprintf("Output format (supported values: %s)", strings.Join(names, ", ")),
	}
}

// parseOutputFormat reads --format and checks it against allowed.
func parseOutputFormat(cmd *cli.Command, allowed ...serializer.Format) (serializer.Format, error) {
	f, err := serializer.ParseFormat(cmd.String("format"))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid --format", err)
	}
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", apperrors.New(apperrors.ErrCodeInvalidRequest,
		fmt.Sprintf("--format %s is not supported by this command", f))
}

// loadDashboard reads a dashboard from path, or builds the default one with
// title when path is empty.
func loadDashboard(ctx context.Context, path, title string) (*dashboard.Dashboard, error) {
	if path == "" {
		opts := dashboard.DefaultOptions()
		opts.Title = title
		return dashboard.Default(opts)
	}

	d, err := serializer.FromFile[dashboard.Dashboard](ctx, path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to load dashboard from %q", path), err)
	}
	if err := dashboard.Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// openOutput builds the serializer for dest. The returned close func is
// always safe to call.
func openOutput(format serializer.Format, dest string) (serializer.Serializer, func(), error) {
	ser, err := serializer.NewFileWriter(format, dest)
	if err != nil {
		return nil, func() {}, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid output destination", err)
	}
	closeFn := func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}
	return ser, closeFn, nil
}

// writeOutput serializes v to dest and closes the destination.
func writeOutput(ctx context.Context, format serializer.Format, dest string, v any) error {
	ser, closeFn, err := openOutput(format, dest)
	if err != nil {
		return err
	}
	defer closeFn()

	return ser.Serialize(ctx, v)
}
