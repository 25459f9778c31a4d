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
	"encoding/json"
	"fmt"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/urfave/cli/v3"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/oci"
	"github.com/NVIDIA/grafana-provisioner/pkg/serializer"
)

func dashboardCmd() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Render or publish the SRE dashboard without contacting Grafana",
		Commands: []*cli.Command{
			dashboardRenderCmd(),
			dashboardPushCmd(),
		},
		OnUsageError: usageError,
	}
}

func dashboardRenderCmd() *cli.Command {
	return &cli.Command{
		Name:                  "render",
		EnableShellCompletion: true,
		Usage:                 "Write the dashboard document",
		Description: `Renders the dashboard document exactly as it is sent to Grafana.

# Examples

Print the built-in dashboard:
  grafprov dashboard render --format json

Store it in a ConfigMap for later provisioning runs:
  grafprov dashboard render --format yaml --output cm://monitoring/sre-dashboard`,
		Flags: []cli.Flag{
			outputFlag(),
			formatFlag(string(serializer.FormatJSON), serializer.FormatJSON, serializer.FormatYAML),
			titleFlag(),
			dashboardFileFlag(),
		},
		OnUsageError: usageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseOutputFormat(cmd, serializer.FormatJSON, serializer.FormatYAML)
			if err != nil {
				return err
			}

			d, err := loadDashboard(ctx, cmd.String("dashboard-file"), cmd.String("title"))
			if err != nil {
				return err
			}

			return writeOutput(ctx, format, cmd.String("output"), d)
		},
	}
}

func dashboardPushCmd() *cli.Command {
	return &cli.Command{
		Name:                  "push",
		EnableShellCompletion: true,
		Usage:                 "Push the dashboard to an OCI registry",
		Description: `Packages the dashboard JSON as an OCI artifact
(application/vnd.grafprov.dashboard) and pushes it with Docker credentials.

# Examples

  grafprov dashboard push --registry ghcr.io --repository sre/dashboards --tag v1

  grafprov dashboard push --ref oci://localhost:5000/sre/dashboards:dev --plain-http`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Full OCI reference (oci://registry/repository:tag); replaces --registry, --repository and --tag",
			},
			&cli.StringFlag{
				Name:  "registry",
				Usage: "OCI registry host (e.g., ghcr.io, localhost:5000)",
			},
			&cli.StringFlag{
				Name:  "repository",
				Usage: "Repository path (e.g., sre/dashboards)",
			},
			&cli.StringFlag{
				Name:  "tag",
				Value: oci.DefaultTag,
				Usage: "Artifact tag",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the registry connection",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification",
			},
			titleFlag(),
			dashboardFileFlag(),
		},
		OnUsageError: usageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ref, err := pushReference(cmd)
			if err != nil {
				return err
			}

			d, err := loadDashboard(ctx, cmd.String("dashboard-file"), cmd.String("title"))
			if err != nil {
				return err
			}

			content, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to encode dashboard", err)
			}

			res, err := oci.Push(ctx, oci.PushOptions{
				Reference:   ref,
				PlainHTTP:   cmd.Bool("plain-http"),
				InsecureTLS: cmd.Bool("insecure-tls"),
				Annotations: map[string]string{
					ociv1.AnnotationTitle:   d.Title,
					ociv1.AnnotationVersion: version,
					ociv1.AnnotationCreated: time.Now().UTC().Format(time.RFC3339),
				},
			}, content)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Dashboard pushed to %s@%s\n", res.Reference, res.Digest)
			return nil
		},
	}
}

// pushReference builds the destination from --ref or from the
// --registry/--repository/--tag triple.
func pushReference(cmd *cli.Command) (*oci.Reference, error) {
	if raw := cmd.String("ref"); raw != "" {
		if cmd.IsSet("registry") || cmd.IsSet("repository") {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
				"--ref cannot be combined with --registry or --repository")
		}
		return oci.ParseReference(raw)
	}
	return oci.NewReference(cmd.String("registry"), cmd.String("repository"), cmd.String("tag"))
}
