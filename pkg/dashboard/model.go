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

package dashboard

// Dashboard is the Grafana dashboard document sent under "dashboard" in a
// save request. ID and UID stay nil so Grafana matches on title and the
// save overwrites in place.
type Dashboard struct {
	ID            *int64   `json:"id" yaml:"id"`
	UID           *string  `json:"uid" yaml:"uid"`
	Title         string   `json:"title" yaml:"title"`
	Tags          []string `json:"tags" yaml:"tags"`
	Timezone      string   `json:"timezone" yaml:"timezone"`
	SchemaVersion int      `json:"schemaVersion" yaml:"schemaVersion"`
	Version       int      `json:"version" yaml:"version"`
	Refresh       string   `json:"refresh" yaml:"refresh"`
	Panels        []Panel  `json:"panels" yaml:"panels"`
}

// ObjectKind names the dashboard in ConfigMap output.
func (d *Dashboard) ObjectKind() string { return "dashboard" }

// Panel is a single timeseries panel.
type Panel struct {
	Title       string       `json:"title" yaml:"title"`
	Type        string       `json:"type" yaml:"type"`
	Datasource  string       `json:"datasource" yaml:"datasource"`
	Targets     []Target     `json:"targets" yaml:"targets"`
	GridPos     GridPos      `json:"gridPos" yaml:"gridPos"`
	FieldConfig FieldConfig  `json:"fieldConfig" yaml:"fieldConfig"`
	Options     PanelOptions `json:"options" yaml:"options"`
}

// Target is one query of a panel.
type Target struct {
	Expr         string `json:"expr" yaml:"expr"`
	LegendFormat string `json:"legendFormat" yaml:"legendFormat"`
	RefID        string `json:"refId" yaml:"refId"`
}

// GridPos places a panel on Grafana's 24-column grid.
type GridPos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// overlaps reports whether two grid rectangles intersect.
func (g GridPos) overlaps(o GridPos) bool {
	return g.X < o.X+o.W && o.X < g.X+g.W && g.Y < o.Y+o.H && o.Y < g.Y+g.H
}

type FieldConfig struct {
	Defaults FieldDefaults `json:"defaults" yaml:"defaults"`
}

type FieldDefaults struct {
	Unit       string     `json:"unit" yaml:"unit"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
}

// Thresholds colors a panel by value. Mode is "percentage" or "absolute".
type Thresholds struct {
	Mode  string          `json:"mode" yaml:"mode"`
	Steps []ThresholdStep `json:"steps" yaml:"steps"`
}

// ThresholdStep is one color band. The base step has a nil Value, which
// Grafana reads as negative infinity.
type ThresholdStep struct {
	Color string   `json:"color" yaml:"color"`
	Value *float64 `json:"value" yaml:"value"`
}

type PanelOptions struct {
	ShowPoints  string `json:"showPoints" yaml:"showPoints"`
	LineWidth   int    `json:"lineWidth" yaml:"lineWidth"`
	FillOpacity int    `json:"fillOpacity" yaml:"fillOpacity"`
}
