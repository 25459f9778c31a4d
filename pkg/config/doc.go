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

// Package config builds the provisioning configuration.
//
// Sources, lowest precedence first:
//
//  1. defaults from pkg/defaults and the constants in this package
//  2. a dotenv file (.env by default, or WithEnvFile)
//  3. the process environment
//  4. overrides registered with WithOverride (CLI flags)
//
// Required variables:
//
//	GRAFANA_URL                   base URL of the Grafana instance
//	GRAFANA_ADMIN_USER            basic-auth user for provisioning calls
//	GRAFANA_ADMIN_PASSWORD        basic-auth password
//	GRAFANA_SERVICE_ACCOUNT_NAME  service account to create or reuse
//	GRAFANA_SERVICE_ACCOUNT_ROLE  Admin, Editor, Viewer or None
//
// Optional variables:
//
//	GRAFANA_TOKEN_NAME        token label (automated_sre_token)
//	PROMETHEUS_URL            data source URL (http://prometheus:9090)
//	PROMETHEUS_TIME_INTERVAL  scrape interval hint (5s)
//	GRAFANA_DASHBOARD_TITLE   dashboard title (Automated SRE Dashboard)
//	STARTUP_DELAY             pause before the first call (5s)
//	GRAFANA_HTTP_TIMEOUT      per-call timeout (30s)
//	GRAFANA_MAX_RETRIES       retries for transient failures (3)
//	GRAFANA_RETRY_INTERVAL    first backoff interval (500ms)
//	GRAFANA_RATE_LIMIT        requests per second towards Grafana (10)
//
// Load validates the result and reports every invalid field in one error
// with code INVALID_REQUEST.
package config
