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

package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"k8s.io/client-go/rest"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

func resetSingleton() {
	clientOnce = sync.Once{}
	cachedClient = nil
	cachedConfig = nil
	clientErr = nil
}

func TestBuildKubeClient_PathResolution(t *testing.T) {
	tests := []struct {
		name          string
		kubeconfigArg string
		kubeconfigEnv string
		errorContains string
	}{
		{
			name:          "explicit invalid path",
			kubeconfigArg: "/nonexistent/path/to/kubeconfig",
			errorContains: "failed to build kube config",
		},
		{
			name:          "env var with invalid path",
			kubeconfigEnv: "/nonexistent/env/kubeconfig",
			errorContains: "failed to build kube config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KUBECONFIG", tt.kubeconfigEnv)

			_, _, err := BuildKubeClient(tt.kubeconfigArg)
			if err == nil {
				t.Fatal("BuildKubeClient() expected error")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("BuildKubeClient() error = %v, want error containing %q", err, tt.errorContains)
			}
		})
	}
}

func TestBuildKubeClient_ExplicitPath(t *testing.T) {
	invalidConfig := filepath.Join(t.TempDir(), "invalid-kubeconfig")
	if err := os.WriteFile(invalidConfig, []byte("invalid yaml content"), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	_, _, err := BuildKubeClient(invalidConfig)
	if err == nil {
		t.Fatal("BuildKubeClient() with invalid config should return error")
	}
	if !strings.Contains(err.Error(), "failed to build kube config") {
		t.Errorf("BuildKubeClient() error = %v", err)
	}
}

func TestBuildKubeClient_ValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kubeconfig")
	content := `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://127.0.0.1:6443
contexts:
- name: test
  context:
    cluster: test
    user: test
current-context: test
users:
- name: test
  user:
    token: abc
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write kubeconfig: %v", err)
	}

	cs, cfg, err := BuildKubeClient(path)
	if err != nil {
		t.Fatalf("BuildKubeClient() error = %v", err)
	}
	if cs == nil || cfg == nil {
		t.Fatal("expected client and config")
	}
	if cfg.Host != "https://127.0.0.1:6443" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if got := AuthMethod(cfg); got != "bearer-token" {
		t.Errorf("AuthMethod() = %q, want bearer-token", got)
	}
}

func TestGetKubeClient_Singleton(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)
	t.Setenv("KUBECONFIG", "/nonexistent/kubeconfig")

	client1, config1, err1 := GetKubeClient()
	client2, config2, err2 := GetKubeClient()

	// nolint:errorlint // same instance expected from the cache
	if err1 != err2 {
		t.Errorf("expected same error instance: %v vs %v", err1, err2)
	}
	if client1 != client2 {
		t.Error("expected same client instance")
	}
	if config1 != config2 {
		t.Error("expected same config instance")
	}
	if err1 == nil {
		t.Error("expected error for nonexistent kubeconfig")
	}
	if client1 != nil {
		t.Error("expected nil interface on error")
	}
}

func TestAuthMethod(t *testing.T) {
	tests := []struct {
		name   string
		config *rest.Config
		want   string
	}{
		{"nil", nil, "unknown"},
		{"auth provider", &rest.Config{AuthProvider: &clientcmdapi.AuthProviderConfig{Name: "oidc"}}, "oidc"},
		{"exec", &rest.Config{ExecProvider: &clientcmdapi.ExecConfig{Command: "aws"}}, "exec"},
		{"bearer token", &rest.Config{BearerToken: "t"}, "bearer-token"},
		{"bearer token file", &rest.Config{BearerTokenFile: "/var/run/token"}, "bearer-token"},
		{"cert", &rest.Config{TLSClientConfig: rest.TLSClientConfig{CertData: []byte("x")}}, "cert"},
		{"default", &rest.Config{}, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AuthMethod(tt.config); got != tt.want {
				t.Errorf("AuthMethod() = %q, want %q", got, tt.want)
			}
		})
	}
}
