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

import (
	"fmt"
	"strings"

	"k8s.io/utils/ptr"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
)

// Layout and document constants.
const (
	GridColumns   = 24
	PanelWidth    = 12
	PanelHeight   = 8
	PanelsPerRow  = GridColumns / PanelWidth
	SchemaVersion = 30

	DefaultTitle      = "Automated SRE Dashboard"
	DefaultTimezone   = "browser"
	DefaultRefresh    = "5s"
	DefaultDatasource = "Prometheus"
	PanelType         = "timeseries"
)

// DefaultTags are attached to the dashboard unless overridden.
var DefaultTags = []string{"automated", "sre", "prometheus"}

// Options controls the document-level fields of a built dashboard.
type Options struct {
	Title      string
	Tags       []string
	Timezone   string
	Refresh    string
	Datasource string
}

// DefaultOptions returns the options used for the provisioned dashboard.
func DefaultOptions() Options {
	return Options{
		Title:      DefaultTitle,
		Tags:       append([]string(nil), DefaultTags...),
		Timezone:   DefaultTimezone,
		Refresh:    DefaultRefresh,
		Datasource: DefaultDatasource,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.Tags == nil {
		o.Tags = d.Tags
	}
	if o.Timezone == "" {
		o.Timezone = d.Timezone
	}
	if o.Refresh == "" {
		o.Refresh = d.Refresh
	}
	if o.Datasource == "" {
		o.Datasource = d.Datasource
	}
	return o
}

// Build lays specs out two per row and assigns refIds A, B, C... in order.
func Build(opts Options, specs []PanelSpec) (*Dashboard, error) {
	if len(specs) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "dashboard needs at least one panel")
	}
	if len(specs) > 26 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("too many panels: %d (max 26)", len(specs)))
	}

	opts = opts.withDefaults()

	d := &Dashboard{
		Title:         opts.Title,
		Tags:          opts.Tags,
		Timezone:      opts.Timezone,
		SchemaVersion: SchemaVersion,
		Version:       0,
		Refresh:       opts.Refresh,
		Panels:        make([]Panel, 0, len(specs)),
	}

	for i, s := range specs {
		d.Panels = append(d.Panels, newPanel(s, opts.Datasource, i))
	}

	if err := Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Default builds the full dashboard from DefaultPanels.
func Default(opts Options) (*Dashboard, error) {
	return Build(opts, DefaultPanels())
}

func newPanel(s PanelSpec, datasource string, index int) Panel {
	return Panel{
		Title:      s.Title,
		Type:       PanelType,
		Datasource: datasource,
		Targets: []Target{{
			Expr:         s.Expr,
			LegendFormat: s.Legend,
			RefID:        refID(index),
		}},
		GridPos: GridPos{
			X: (index % PanelsPerRow) * PanelWidth,
			Y: (index / PanelsPerRow) * PanelHeight,
			W: PanelWidth,
			H: PanelHeight,
		},
		FieldConfig: FieldConfig{
			Defaults: FieldDefaults{
				Unit: s.Unit,
				Thresholds: Thresholds{
					Mode: s.Mode,
					Steps: []ThresholdStep{
						{Color: "green", Value: nil},
						{Color: "orange", Value: ptr.To(s.Orange)},
						{Color: "red", Value: ptr.To(s.Red)},
					},
				},
			},
		},
		Options: PanelOptions{
			ShowPoints:  "never",
			LineWidth:   2,
			FillOpacity: 10,
		},
	}
}

func refID(index int) string {
	return string(rune('A' + index))
}

// Validate checks the invariants Grafana relies on: every panel has a target,
// refIds are unique, and grid positions stay on the grid without overlapping.
// All problems are reported together.
func Validate(d *Dashboard) error {
	if d == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "dashboard is nil")
	}

	var problems []string
	if strings.TrimSpace(d.Title) == "" {
		problems = append(problems, "title is empty")
	}
	if len(d.Panels) == 0 {
		problems = append(problems, "no panels")
	}

	refIDs := make(map[string]string, len(d.Panels))
	for i, p := range d.Panels {
		if len(p.Targets) == 0 {
			problems = append(problems, fmt.Sprintf("panel %q has no targets", p.Title))
		}
		for _, t := range p.Targets {
			if t.RefID == "" {
				problems = append(problems, fmt.Sprintf("panel %q has a target without refId", p.Title))
				continue
			}
			if other, dup := refIDs[t.RefID]; dup {
				problems = append(problems, fmt.Sprintf("refId %s used by %q and %q", t.RefID, other, p.Title))
				continue
			}
			refIDs[t.RefID] = p.Title
		}

		g := p.GridPos
		if g.W <= 0 || g.H <= 0 || g.X < 0 || g.Y < 0 || g.X+g.W > GridColumns {
			problems = append(problems, fmt.Sprintf("panel %q gridPos %+v is out of bounds", p.Title, g))
		}
		for _, q := range d.Panels[:i] {
			if g.overlaps(q.GridPos) {
				problems = append(problems, fmt.Sprintf("panel %q overlaps %q", p.Title, q.Title))
			}
		}
	}

	if len(problems) > 0 {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
			"invalid dashboard: "+strings.Join(problems, "; "),
			map[string]any{"problems": len(problems)})
	}
	return nil
}
