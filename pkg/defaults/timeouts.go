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

package defaults

import "time"

// Startup timing.
const (
	// StartupDelay is the pause before any network activity so that Grafana
	// and Prometheus started alongside the provisioner can finish booting.
	StartupDelay = 5 * time.Second
)

// HTTP client timeouts for outbound Grafana API requests.
const (
	// HTTPClientTimeout is the default total timeout for a single HTTP request.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPExpectContinueTimeout is the timeout for Expect: 100-continue.
	HTTPExpectContinueTimeout = 1 * time.Second
)

// Retry parameters for transient transport failures.
const (
	// RetryMaxAttempts is the number of retries after the first attempt.
	RetryMaxAttempts = 3

	// RetryInitialInterval is the first backoff interval.
	RetryInitialInterval = 500 * time.Millisecond

	// RetryMaxInterval caps a single backoff interval.
	RetryMaxInterval = 5 * time.Second

	// RetryMaxElapsed bounds the total time spent retrying one call.
	// Should exceed HTTPClientTimeout so a single slow attempt can still be retried.
	RetryMaxElapsed = 60 * time.Second
)

// Client-side request rate limiting.
const (
	// RateLimitPerSecond is the default sustained request rate towards Grafana.
	RateLimitPerSecond = 10

	// RateLimitBurst is the default burst size.
	RateLimitBurst = 5
)

// Kubernetes timeouts for report and token sinks.
const (
	// KubeWriteTimeout is the timeout for applying ConfigMaps and Secrets.
	KubeWriteTimeout = 30 * time.Second
)

// CLI timeouts for command-line operations.
const (
	// CLIPushTimeout bounds a dashboard OCI push.
	CLIPushTimeout = 2 * time.Minute
)
