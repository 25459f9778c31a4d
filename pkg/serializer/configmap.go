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

package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"

	"github.com/NVIDIA/grafana-provisioner/pkg/defaults"
	"github.com/NVIDIA/grafana-provisioner/pkg/k8s/client"
)

const (
	// ConfigMapURIScheme selects ConfigMap output: cm://namespace/name.
	ConfigMapURIScheme = "cm://"

	// FieldManager identifies grafprov in server-side apply.
	FieldManager = "grafprov"

	defaultKind = "data"
)

// ConfigMapWriter writes serialized data to a Kubernetes ConfigMap.
// The ConfigMap is created if it doesn't exist, or updated if it does.
type ConfigMapWriter struct {
	namespace string
	name      string
	format    Format
	factory   client.Factory
	now       func() time.Time
}

// NewConfigMapWriter creates a new ConfigMapWriter that writes to the specified
// namespace and ConfigMap name in the given format.
func NewConfigMapWriter(namespace, name string, format Format) *ConfigMapWriter {
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		format = FormatJSON
	}
	return &ConfigMapWriter{
		namespace: namespace,
		name:      name,
		format:    format,
		factory:   client.GetKubeClient,
		now:       time.Now,
	}
}

// WithClientFactory replaces the shared Kubernetes client.
func (w *ConfigMapWriter) WithClientFactory(f client.Factory) *ConfigMapWriter {
	w.factory = f
	return w
}

// Serialize applies a ConfigMap holding v. The ConfigMap will have:
//   - data.<kind>.{json|yaml|txt}: the serialized content
//   - data.format: the format used
//   - data.timestamp: RFC 3339 time of the write
//
// kind comes from v's ObjectKind when it implements Kinded, else "data".
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.KubeWriteTimeout)
	defer cancel()

	cs, config, err := w.factory()
	if err != nil {
		return fmt.Errorf("failed to get kubernetes client: %w", err)
	}

	content, err := encode(w.format, v)
	if err != nil {
		return err
	}

	kind := defaultKind
	if k, ok := v.(Kinded); ok && k.ObjectKind() != "" {
		kind = k.ObjectKind()
	}

	slog.Info("applying ConfigMap",
		"namespace", w.namespace,
		"name", w.name,
		"kind", kind,
		"auth_method", client.AuthMethod(config),
		"format", w.format)

	configMap := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":       "grafprov",
			"app.kubernetes.io/component":  kind,
			"app.kubernetes.io/managed-by": FieldManager,
		}).
		WithData(map[string]string{
			kind + "." + w.format.Extension(): string(content),
			"format":                          string(w.format),
			"timestamp":                       w.now().UTC().Format(time.RFC3339),
		})

	// Force takes ownership from any previous field manager.
	_, err = cs.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, configMap, metav1.ApplyOptions{
		FieldManager: FieldManager,
		Force:        true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}

	return nil
}

// Close is a no-op; ConfigMapWriter holds no resources.
func (w *ConfigMapWriter) Close() error {
	return nil
}

// parseConfigMapURI parses cm://namespace/name.
func parseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	path := strings.TrimPrefix(uri, ConfigMapURIScheme)

	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])

	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}

	return namespace, name, nil
}
