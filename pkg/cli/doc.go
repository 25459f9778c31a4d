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

// Package cli implements the grafprov command-line interface.
//
// # Commands
//
// provision - Prepare Grafana for monitoring:
//
//	grafprov provision [--token-output PATH|secret://ns/name] [--report PATH|cm://ns/name]
//
// Creates or reuses the service account, mints its token, registers the
// Prometheus data source and publishes the SRE dashboard. Console status
// lines go to stdout; structured logs go to stderr.
//
// dashboard render - Write the dashboard document:
//
//	grafprov dashboard render [--output PATH|cm://ns/name] [--format json|yaml] [--title TITLE]
//
// dashboard push - Publish the dashboard as an OCI artifact:
//
//	grafprov dashboard push --registry HOST --repository REPO [--tag TAG] [--plain-http] [--insecure-tls]
//
// # Global Flags
//
//	--log-level    Log level: debug, info, warn, error (env LOG_LEVEL)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Exit Codes
//
//	0  Success
//	1  Service account or token stage failed
//	2  Data source or dashboard stage failed
//	3  Invalid configuration or usage
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/grafana-provisioner/pkg/cli.version=1.0.0'"
package cli
