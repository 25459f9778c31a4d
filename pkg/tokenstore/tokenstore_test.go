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

package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/rest"
	k8stesting "k8s.io/client-go/testing"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/k8s/client"
)

func TestNewSecretSink(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		wantStr   string
		wantError bool
	}{
		{name: "secret", uri: "secret://monitoring/grafana-token", wantStr: "secret://monitoring/grafana-token"},
		{name: "secret with spaces", uri: "secret://monitoring / grafana-token ", wantStr: "secret://monitoring/grafana-token"},
		{name: "missing name", uri: "secret://monitoring/", wantError: true},
		{name: "missing namespace", uri: "secret:///grafana-token", wantError: true},
		{name: "missing separator", uri: "secret://monitoring", wantError: true},
		{name: "nested name", uri: "secret://monitoring/a/b", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := NewSecretSink(tt.uri)
			if tt.wantError {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStr, sink.String())
		})
	}
}

func TestNewFileSink(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantStr   string
		wantError bool
	}{
		{name: "absolute", path: "/tmp/token", wantStr: "/tmp/token"},
		{name: "relative", path: " out/token.txt ", wantStr: "out/token.txt"},
		{name: "empty", path: "  ", wantError: true},
		{name: "unknown scheme", path: "s3://bucket/token", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := NewFileSink(tt.path)
			if tt.wantError {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStr, sink.String())
		})
	}
}

func TestIsSecretURI(t *testing.T) {
	assert.True(t, IsSecretURI("secret://monitoring/token"))
	assert.True(t, IsSecretURI("  secret://monitoring/token"))
	assert.False(t, IsSecretURI("/var/run/token"))
	assert.False(t, IsSecretURI("cm://monitoring/token"))
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "token")

	sink := &FileSink{Path: path}
	require.NoError(t, sink.Store(context.Background(), "glsa_abc"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "glsa_abc\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	t.Run("overwrites and tightens permissions", func(t *testing.T) {
		require.NoError(t, os.Chmod(path, 0o644))
		require.NoError(t, sink.Store(context.Background(), "glsa_new"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "glsa_new\n", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})
}

func fakeFactory(cs client.Interface) client.Factory {
	return func() (client.Interface, *rest.Config, error) {
		return cs, &rest.Config{BearerToken: "x"}, nil
	}
}

func TestSecretSink(t *testing.T) {
	cs := fake.NewClientset()

	var (
		patchType types.PatchType
		applied   corev1.Secret
		namespace string
	)
	cs.PrependReactor("patch", "secrets", func(action k8stesting.Action) (bool, runtime.Object, error) {
		pa := action.(k8stesting.PatchAction)
		patchType = pa.GetPatchType()
		namespace = pa.GetNamespace()
		if err := json.Unmarshal(pa.GetPatch(), &applied); err != nil {
			return true, nil, err
		}
		return true, &applied, nil
	})

	sink, err := NewSecretSink("secret://monitoring/grafana-token",
		WithClientFactory(fakeFactory(cs)),
		WithLabels(map[string]string{"team": "sre"}))
	require.NoError(t, err)

	require.NoError(t, sink.Store(context.Background(), "glsa_abc"))

	assert.Equal(t, types.ApplyPatchType, patchType)
	assert.Equal(t, "monitoring", namespace)
	assert.Equal(t, "grafana-token", applied.Name)
	assert.Equal(t, corev1.SecretTypeOpaque, applied.Type)
	assert.Equal(t, []byte("glsa_abc"), applied.Data[SecretKey])
	assert.Equal(t, "grafprov", applied.Labels["app.kubernetes.io/name"])
	assert.Equal(t, "sre", applied.Labels["team"])
}

func TestSecretSinkErrors(t *testing.T) {
	t.Run("client unavailable", func(t *testing.T) {
		sink, err := NewSecretSink("secret://monitoring/grafana-token",
			WithClientFactory(func() (client.Interface, *rest.Config, error) {
				return nil, nil, errors.New("no kubeconfig")
			}))
		require.NoError(t, err)

		err = sink.Store(context.Background(), "glsa_abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get kubernetes client")
	})

	t.Run("apply rejected", func(t *testing.T) {
		cs := fake.NewClientset()
		cs.PrependReactor("patch", "secrets", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, errors.New("forbidden")
		})

		sink, err := NewSecretSink("secret://monitoring/grafana-token", WithClientFactory(fakeFactory(cs)))
		require.NoError(t, err)

		err = sink.Store(context.Background(), "glsa_abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to apply Secret monitoring/grafana-token")
	})
}
