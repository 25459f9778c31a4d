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

// Threshold modes.
const (
	ThresholdModePercentage = "percentage"
	ThresholdModeAbsolute   = "absolute"
)

// Units used by the default panels.
const (
	UnitPercent = "percent"
	UnitOps     = "ops"
	UnitNone    = "none"
)

const pgTableLegend = "{{schemaname}}.{{relname}}"

// PanelSpec describes one panel independently of its position in a dashboard.
type PanelSpec struct {
	Title  string
	Expr   string
	Legend string
	Unit   string
	Mode   string
	Orange float64
	Red    float64
}

// DefaultPanels returns the node and PostgreSQL panels in display order.
// Each call returns a fresh slice.
func DefaultPanels() []PanelSpec {
	return []PanelSpec{
		{
			Title:  "CPU Usage",
			Expr:   "100 - (avg by (instance) (rate(node_cpu_seconds_total{mode='idle'}[5m])) * 100)",
			Legend: "{{instance}}",
			Unit:   UnitPercent,
			Mode:   ThresholdModePercentage,
			Orange: 70,
			Red:    90,
		},
		{
			Title:  "Memory Usage",
			Expr:   "(node_memory_MemTotal_bytes - node_memory_MemAvailable_bytes) / node_memory_MemTotal_bytes * 100",
			Legend: "{{instance}}",
			Unit:   UnitPercent,
			Mode:   ThresholdModePercentage,
			Orange: 70,
			Red:    90,
		},
		{
			Title:  "Rows Inserted Per Second",
			Expr:   "rate(pg_stat_user_tables_n_tup_ins[5m])",
			Legend: pgTableLegend,
			Unit:   UnitOps,
			Mode:   ThresholdModeAbsolute,
			Orange: 100,
			Red:    500,
		},
		{
			Title:  "Rows Updated Per Second",
			Expr:   "rate(pg_stat_user_tables_n_tup_upd[5m])",
			Legend: pgTableLegend,
			Unit:   UnitOps,
			Mode:   ThresholdModeAbsolute,
			Orange: 100,
			Red:    500,
		},
		{
			Title:  "Rows Deleted Per Second",
			Expr:   "rate(pg_stat_user_tables_n_tup_del[5m])",
			Legend: pgTableLegend,
			Unit:   UnitOps,
			Mode:   ThresholdModeAbsolute,
			Orange: 100,
			Red:    500,
		},
		{
			Title:  "Rows Fetched via Sequential Scan Per Second",
			Expr:   "rate(pg_stat_user_tables_seq_tup_read[5m])",
			Legend: pgTableLegend,
			Unit:   UnitOps,
			Mode:   ThresholdModeAbsolute,
			Orange: 1000,
			Red:    5000,
		},
		{
			Title:  "Rows Fetched via Index Scan Per Second",
			Expr:   "rate(pg_stat_user_tables_idx_tup_fetch[5m])",
			Legend: pgTableLegend,
			Unit:   UnitOps,
			Mode:   ThresholdModeAbsolute,
			Orange: 1000,
			Red:    5000,
		},
		{
			Title:  "PostgreSQL Active Connections",
			Expr:   "pg_stat_activity_count{datname='postgres'}",
			Legend: "{{usename}} - {{state}}",
			Unit:   UnitNone,
			Mode:   ThresholdModeAbsolute,
			Orange: 50,
			Red:    100,
		},
	}
}
