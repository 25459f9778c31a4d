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

// Package provisioner brings a Grafana instance to a known monitoring state:
// a service account with a fresh token, a Prometheus data source and the
// SRE dashboard.
//
// # Stages
//
// Run executes four stages in order:
//
//   - service-account: create the account, or look it up by name on 409
//   - token: mint the labeled token; on 409 delete the old one and mint again
//   - datasource: add the Prometheus data source; 409 counts as success
//   - dashboard: save the dashboard with overwrite enabled
//
// A failure in the first two stages ends the run and the remaining stages
// are reported as skipped. Data source and dashboard failures are printed
// and recorded but do not stop the run.
//
// # Errors
//
// Errors returned by EnsureToken carry code PROVISIONING. Errors from
// RegisterDataSource and PublishDashboard carry code REGISTRATION. When
// Grafana could not be reached the chain also carries TRANSPORT.
//
// # Output
//
// Human-readable status lines go to the writer set with WithOutput, stdout
// by default. Structured logs go through slog.
package provisioner
