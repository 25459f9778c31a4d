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

package oci

import (
	"testing"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantReg  string
		wantRepo string
		wantTag  string
		wantErr  bool
	}{
		{
			name:     "with tag",
			input:    "oci://ghcr.io/sre/dashboards:v1.0.0",
			wantReg:  "ghcr.io",
			wantRepo: "sre/dashboards",
			wantTag:  "v1.0.0",
		},
		{
			name:     "without tag gets default",
			input:    "oci://ghcr.io/sre/dashboards",
			wantReg:  "ghcr.io",
			wantRepo: "sre/dashboards",
			wantTag:  DefaultTag,
		},
		{
			name:     "without scheme",
			input:    "localhost:5000/dashboards:dev",
			wantReg:  "localhost:5000",
			wantRepo: "dashboards",
			wantTag:  "dev",
		},
		{
			name:     "nested repository",
			input:    "oci://registry.example.com:5000/org/team/sre:latest",
			wantReg:  "registry.example.com:5000",
			wantRepo: "org/team/sre",
			wantTag:  "latest",
		},
		{
			name:    "empty",
			input:   "oci://",
			wantErr: true,
		},
		{
			name:    "uppercase repository",
			input:   "oci://ghcr.io/SRE/Dashboards:v1",
			wantErr: true,
		},
		{
			name:    "digest",
			input:   "oci://ghcr.io/sre/dashboards@sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseReference(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReference(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest) {
					t.Errorf("expected INVALID_REQUEST, got %v", err)
				}
				return
			}
			if ref.Registry != tt.wantReg || ref.Repository != tt.wantRepo || ref.Tag != tt.wantTag {
				t.Errorf("ParseReference(%q) = %+v", tt.input, ref)
			}
		})
	}
}

func TestNewReference(t *testing.T) {
	tests := []struct {
		name       string
		registry   string
		repository string
		tag        string
		want       string
		wantErr    bool
	}{
		{"plain", "ghcr.io", "sre/dashboards", "v1", "ghcr.io/sre/dashboards:v1", false},
		{"https prefix", "https://ghcr.io", "sre/dashboards", "v1", "ghcr.io/sre/dashboards:v1", false},
		{"http prefix", "http://localhost:5000", "sre", "", "localhost:5000/sre:latest", false},
		{"missing registry", "", "sre", "v1", "", true},
		{"missing repository", "ghcr.io", "", "v1", "", true},
		{"registry with spaces", "invalid registry", "sre", "v1", "", true},
		{"repository with special chars", "ghcr.io", "sre/repo@latest", "v1", "", true},
		{"invalid tag", "ghcr.io", "sre", "bad tag", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := NewReference(tt.registry, tt.repository, tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewReference() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := ref.ImageReference(); got != tt.want {
				t.Errorf("ImageReference() = %q, want %q", got, tt.want)
			}
			if got := ref.String(); got != URIScheme+tt.want {
				t.Errorf("String() = %q, want %q", got, URIScheme+tt.want)
			}
		})
	}
}

func TestStripProtocol(t *testing.T) {
	tests := map[string]string{
		"https://ghcr.io":       "ghcr.io",
		"http://localhost:5000": "localhost:5000",
		"ghcr.io":               "ghcr.io",
		"":                      "",
	}
	for in, want := range tests {
		if got := stripProtocol(in); got != want {
			t.Errorf("stripProtocol(%q) = %q, want %q", in, got, want)
		}
	}
}
