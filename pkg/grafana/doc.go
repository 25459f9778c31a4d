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

// Package grafana is a small typed client for the parts of the Grafana HTTP
// API used to provision monitoring: service accounts, service account
// tokens, data sources and dashboards.
//
// # Usage
//
//	client, err := grafana.NewClient("http://grafana:3000",
//	    grafana.WithTimeout(30*time.Second),
//	    grafana.WithRetry(3, 500*time.Millisecond),
//	)
//	admin := grafana.BasicAuth{User: "admin", Password: pw}
//	sa, resp, err := client.CreateServiceAccount(ctx, admin,
//	    grafana.CreateServiceAccountRequest{Name: "sre-bot", Role: "Admin"})
//
// # Responses
//
// Every method returns the raw *Response alongside any decoded value, so
// callers can branch on 200, 201, 409 or anything else. A non-nil error
// means Grafana was never reached (code TRANSPORT), or a success body could
// not be decoded.
//
// # Resilience
//
// Transport failures and 502, 503 and 504 responses are retried with
// exponential backoff up to the configured count. Requests pass through a
// token-bucket rate limiter and carry an X-Request-Id header that is also
// logged.
//
// # Metrics
//
//   - grafprov_grafana_requests_total{method,endpoint,status}
//   - grafprov_grafana_request_duration_seconds{method,endpoint}
//   - grafprov_grafana_request_retries_total{endpoint}
package grafana
