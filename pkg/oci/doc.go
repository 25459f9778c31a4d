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

// Package oci pushes the rendered dashboard to an OCI-compliant registry.
//
// The dashboard JSON becomes a single-layer OCI 1.1 artifact pushed with
// ORAS (OCI Registry As Storage), so it can be versioned and pulled
// alongside container images:
//
//	ref, err := oci.ParseReference("oci://ghcr.io/sre/dashboards:v1")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.Push(ctx, oci.PushOptions{Reference: ref}, dashboardJSON)
//
// # Artifact Layout
//
//   - artifactType: application/vnd.grafprov.dashboard
//   - one layer: application/vnd.grafprov.dashboard.v1+json, titled dashboard.json
//
// # Authentication
//
// Credentials are read from the standard Docker configuration
// (~/.docker/config.json, including credential helpers). When none are
// available the push is attempted anonymously.
//
// PlainHTTP talks to local development registries over HTTP; InsecureTLS
// skips certificate verification.
package oci
