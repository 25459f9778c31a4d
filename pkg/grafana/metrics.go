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

package grafana

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Grafana API request metrics
	grafanaRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grafprov_grafana_requests_total",
			Help: "Total number of Grafana API requests by method, endpoint and status",
		},
		[]string{"method", "endpoint", "status"},
	)

	grafanaRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grafprov_grafana_request_duration_seconds",
			Help:    "Duration of Grafana API requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	grafanaRequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grafprov_grafana_request_retries_total",
			Help: "Total number of retried Grafana API requests",
		},
		[]string{"endpoint"},
	)
)
