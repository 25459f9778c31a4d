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

// Package dashboard builds the Grafana dashboard document that grafprov
// publishes.
//
// Panels are described by PanelSpec values and laid out by Build: two
// 12x8 panels per row on Grafana's 24-column grid, with refIds assigned
// A, B, C... in order. DefaultPanels holds the node and PostgreSQL panels.
//
//	d, err := dashboard.Default(dashboard.DefaultOptions())
//
// Validate rejects documents with duplicate refIds, panels without targets,
// or overlapping and off-grid panels. Build calls it before returning.
package dashboard
