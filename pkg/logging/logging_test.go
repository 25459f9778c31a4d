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

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStructuredLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newStructuredLogger(&buf, "grafprov", "v1.2.3", "info")

	logger.Info("stage complete", "stage", "token")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}

	want := map[string]string{
		"msg":     "stage complete",
		"module":  "grafprov",
		"version": "v1.2.3",
		"stage":   "token",
		"level":   "INFO",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %q", k, entry[k], v)
		}
	}
	if _, ok := entry["source"]; ok {
		t.Error("source should only be attached at debug level")
	}
}

func TestStructuredLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newStructuredLogger(&buf, "grafprov", "dev", "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}

	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn should pass at warn level")
	}
}

func TestStructuredLoggerEnvFallback(t *testing.T) {
	t.Setenv(EnvVarLogLevel, "debug")

	var buf bytes.Buffer
	logger := newStructuredLogger(&buf, "grafprov", "dev", "")
	logger.Debug("visible")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected debug line, got %q: %v", buf.String(), err)
	}
	if _, ok := entry["source"]; !ok {
		t.Error("debug entries should carry source location")
	}
}
