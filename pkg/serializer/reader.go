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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/grafana-provisioner/pkg/defaults"
	"github.com/NVIDIA/grafana-provisioner/pkg/k8s/client"
)

// FormatFromPath determines the serialization format based on file extension.
// .yaml and .yml map to YAML; everything else is read as JSON.
func FormatFromPath(filePath string) Format {
	lowerPath := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lowerPath, ".yaml"), strings.HasSuffix(lowerPath, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lowerPath, ".json"):
		return FormatJSON
	default:
		slog.Warn("unknown file extension, defaulting to JSON", "filePath", filePath)
		return FormatJSON
	}
}

// Reader deserializes JSON or YAML from an io.Reader.
// Close must be called when created with NewFileReader.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a Reader for input. Table format cannot be read back.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if format.IsUnknown() {
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if format == FormatTable {
		return nil, fmt.Errorf("table format does not support deserialization")
	}

	r := &Reader{
		format: format,
		input:  input,
	}
	if closer, ok := input.(io.Closer); ok {
		r.closer = closer
	}
	return r, nil
}

// NewFileReader opens filePath for reading in format.
func NewFileReader(format Format, filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r, err := NewReader(format, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

// Deserialize decodes the input into v, which must be a pointer.
func (r *Reader) Deserialize(v any) error {
	if r == nil {
		return fmt.Errorf("reader is nil")
	}
	if r.input == nil {
		return fmt.Errorf("input source is nil")
	}

	switch r.format {
	case FormatJSON:
		if err := json.NewDecoder(r.input).Decode(v); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		if err := yaml.NewDecoder(r.input).Decode(v); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format for deserialization: %s", r.format)
	}
}

// Close releases the underlying file, if any. Safe to call more than once.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// FromFile loads a T from a local JSON or YAML file, or from a ConfigMap
// written by ConfigMapWriter when path is cm://namespace/name.
func FromFile[T any](ctx context.Context, path string) (*T, error) {
	return FromFileWithFactory[T](ctx, path, client.GetKubeClient)
}

// FromFileWithFactory is FromFile with an explicit Kubernetes client source.
func FromFileWithFactory[T any](ctx context.Context, path string, factory client.Factory) (*T, error) {
	if strings.HasPrefix(path, ConfigMapURIScheme) {
		namespace, name, err := parseConfigMapURI(path)
		if err != nil {
			return nil, err
		}
		return fromConfigMap[T](ctx, factory, namespace, name)
	}

	format := FormatFromPath(path)
	reader, err := NewFileReader(format, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			slog.Warn("failed to close reader", "error", closeErr)
		}
	}()

	var v T
	if err := reader.Deserialize(&v); err != nil {
		return nil, fmt.Errorf("failed to deserialize %q: %w", path, err)
	}
	return &v, nil
}

func fromConfigMap[T any](ctx context.Context, factory client.Factory, namespace, name string) (*T, error) {
	readCtx, cancel := context.WithTimeout(ctx, defaults.KubeWriteTimeout)
	defer cancel()

	cs, _, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to get kubernetes client: %w", err)
	}

	cm, err := cs.CoreV1().ConfigMaps(namespace).Get(readCtx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get ConfigMap %s/%s: %w", namespace, name, err)
	}

	format := FormatJSON
	if f, ok := cm.Data["format"]; ok {
		format = Format(f)
	}
	if format == FormatTable || format.IsUnknown() {
		return nil, fmt.Errorf("ConfigMap %s/%s holds %q data, which cannot be read back", namespace, name, format)
	}

	var content string
	suffix := "." + format.Extension()
	for key, data := range cm.Data {
		if strings.HasSuffix(key, suffix) {
			content = data
			break
		}
	}
	if content == "" {
		return nil, fmt.Errorf("ConfigMap %s/%s has no %s data", namespace, name, format)
	}

	reader, err := NewReader(format, strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var v T
	if err := reader.Deserialize(&v); err != nil {
		return nil, fmt.Errorf("failed to deserialize ConfigMap %s/%s: %w", namespace, name, err)
	}
	return &v, nil
}
