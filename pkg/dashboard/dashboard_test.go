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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
)

func TestDefault(t *testing.T) {
	d, err := Default(DefaultOptions())
	require.NoError(t, err)

	assert.Nil(t, d.ID)
	assert.Nil(t, d.UID)
	assert.Equal(t, "Automated SRE Dashboard", d.Title)
	assert.Equal(t, []string{"automated", "sre", "prometheus"}, d.Tags)
	assert.Equal(t, "browser", d.Timezone)
	assert.Equal(t, 30, d.SchemaVersion)
	assert.Equal(t, 0, d.Version)
	assert.Equal(t, "5s", d.Refresh)
	require.Len(t, d.Panels, 8)

	wantRefIDs := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i, p := range d.Panels {
		require.Len(t, p.Targets, 1, p.Title)
		assert.Equal(t, wantRefIDs[i], p.Targets[0].RefID, p.Title)
		assert.Equal(t, "timeseries", p.Type)
		assert.Equal(t, "Prometheus", p.Datasource)
		assert.Equal(t, "never", p.Options.ShowPoints)
		assert.Equal(t, 2, p.Options.LineWidth)
		assert.Equal(t, 10, p.Options.FillOpacity)

		steps := p.FieldConfig.Defaults.Thresholds.Steps
		require.Len(t, steps, 3)
		assert.Equal(t, "green", steps[0].Color)
		assert.Nil(t, steps[0].Value)
		assert.Equal(t, "orange", steps[1].Color)
		assert.Equal(t, "red", steps[2].Color)
		assert.Less(t, *steps[1].Value, *steps[2].Value)
	}
}

func TestDefaultLayout(t *testing.T) {
	d, err := Default(DefaultOptions())
	require.NoError(t, err)

	want := []GridPos{
		{X: 0, Y: 0, W: 12, H: 8}, {X: 12, Y: 0, W: 12, H: 8},
		{X: 0, Y: 8, W: 12, H: 8}, {X: 12, Y: 8, W: 12, H: 8},
		{X: 0, Y: 16, W: 12, H: 8}, {X: 12, Y: 16, W: 12, H: 8},
		{X: 0, Y: 24, W: 12, H: 8}, {X: 12, Y: 24, W: 12, H: 8},
	}
	for i, p := range d.Panels {
		assert.Equal(t, want[i], p.GridPos, p.Title)
	}
}

func TestDefaultPanelTable(t *testing.T) {
	tests := []struct {
		title  string
		unit   string
		mode   string
		orange float64
		red    float64
	}{
		{"CPU Usage", "percent", "percentage", 70, 90},
		{"Memory Usage", "percent", "percentage", 70, 90},
		{"Rows Inserted Per Second", "ops", "absolute", 100, 500},
		{"Rows Updated Per Second", "ops", "absolute", 100, 500},
		{"Rows Deleted Per Second", "ops", "absolute", 100, 500},
		{"Rows Fetched via Sequential Scan Per Second", "ops", "absolute", 1000, 5000},
		{"Rows Fetched via Index Scan Per Second", "ops", "absolute", 1000, 5000},
		{"PostgreSQL Active Connections", "none", "absolute", 50, 100},
	}

	d, err := Default(DefaultOptions())
	require.NoError(t, err)
	require.Len(t, d.Panels, len(tests))

	for i, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			p := d.Panels[i]
			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, tt.unit, p.FieldConfig.Defaults.Unit)
			assert.Equal(t, tt.mode, p.FieldConfig.Defaults.Thresholds.Mode)
			assert.InDelta(t, tt.orange, *p.FieldConfig.Defaults.Thresholds.Steps[1].Value, 0)
			assert.InDelta(t, tt.red, *p.FieldConfig.Defaults.Thresholds.Steps[2].Value, 0)
		})
	}
}

func TestDefaultPanelsIsFresh(t *testing.T) {
	a := DefaultPanels()
	a[0].Title = "changed"
	assert.Equal(t, "CPU Usage", DefaultPanels()[0].Title)
}

func TestJSONShape(t *testing.T) {
	d, err := Default(DefaultOptions())
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	id, hasID := doc["id"]
	assert.True(t, hasID, "id must be present")
	assert.Nil(t, id)
	uid, hasUID := doc["uid"]
	assert.True(t, hasUID, "uid must be present")
	assert.Nil(t, uid)

	panels := doc["panels"].([]any)
	first := panels[0].(map[string]any)
	steps := first["fieldConfig"].(map[string]any)["defaults"].(map[string]any)["thresholds"].(map[string]any)["steps"].([]any)
	green := steps[0].(map[string]any)
	v, ok := green["value"]
	assert.True(t, ok, "green step must carry an explicit null value")
	assert.Nil(t, v)

	assert.Contains(t, string(data), `"expr":"100 - (avg by (instance) (rate(node_cpu_seconds_total{mode='idle'}[5m])) * 100)"`)
}

func TestYAMLRoundTrip(t *testing.T) {
	d, err := Default(DefaultOptions())
	require.NoError(t, err)

	data, err := yaml.Marshal(d)
	require.NoError(t, err)

	var back Dashboard
	require.NoError(t, yaml.Unmarshal(data, &back))
	require.NoError(t, Validate(&back))
	assert.Len(t, back.Panels, 8)
	assert.Nil(t, back.Panels[0].FieldConfig.Defaults.Thresholds.Steps[0].Value)
}

func TestBuildOptions(t *testing.T) {
	d, err := Build(Options{Title: "Custom", Datasource: "Mimir"}, DefaultPanels()[:3])
	require.NoError(t, err)

	assert.Equal(t, "Custom", d.Title)
	assert.Equal(t, DefaultTags, d.Tags)
	assert.Equal(t, "browser", d.Timezone)
	require.Len(t, d.Panels, 3)
	assert.Equal(t, "Mimir", d.Panels[2].Datasource)
	assert.Equal(t, GridPos{X: 0, Y: 8, W: 12, H: 8}, d.Panels[2].GridPos)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(DefaultOptions(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))

	many := make([]PanelSpec, 27)
	for i := range many {
		many[i] = PanelSpec{Title: "p", Expr: "up"}
	}
	_, err = Build(DefaultOptions(), many)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many panels")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Dashboard)
		wantMsg string
	}{
		{
			name:    "duplicate refId",
			mutate:  func(d *Dashboard) { d.Panels[1].Targets[0].RefID = "A" },
			wantMsg: "refId A used by",
		},
		{
			name:    "missing target",
			mutate:  func(d *Dashboard) { d.Panels[3].Targets = nil },
			wantMsg: "has no targets",
		},
		{
			name:    "overlap",
			mutate:  func(d *Dashboard) { d.Panels[1].GridPos.X = 6 },
			wantMsg: "overlaps",
		},
		{
			name:    "out of bounds",
			mutate:  func(d *Dashboard) { d.Panels[1].GridPos.X = 18 },
			wantMsg: "out of bounds",
		},
		{
			name:    "empty title",
			mutate:  func(d *Dashboard) { d.Title = " " },
			wantMsg: "title is empty",
		},
		{
			name:    "no panels",
			mutate:  func(d *Dashboard) { d.Panels = nil },
			wantMsg: "no panels",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Default(DefaultOptions())
			require.NoError(t, err)
			tt.mutate(d)

			err = Validate(d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
		})
	}

	assert.Error(t, Validate(nil))
}

func TestRefID(t *testing.T) {
	got := make([]string, 0, 26)
	for i := 0; i < 26; i++ {
		got = append(got, refID(i))
	}
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRSTUVWXYZ", strings.Join(got, ""))
}
