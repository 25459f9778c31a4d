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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"

	"github.com/NVIDIA/grafana-provisioner/pkg/defaults"
	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/k8s/client"
)

const (
	// SecretURIScheme selects the Kubernetes Secret sink.
	SecretURIScheme = "secret://"

	// SecretKey is the data key holding the token in the Secret.
	SecretKey = "token"

	// FieldManager identifies grafprov in server-side apply.
	FieldManager = "grafprov"

	fileMode = 0o600
	dirMode  = 0o700
)

// Option configures a SecretSink.
type Option func(*SecretSink)

// WithClientFactory sets how the Secret sink obtains its Kubernetes client.
func WithClientFactory(f client.Factory) Option {
	return func(s *SecretSink) {
		s.factory = f
	}
}

// WithLabels adds labels to the Secret.
func WithLabels(labels map[string]string) Option {
	return func(s *SecretSink) {
		s.labels = labels
	}
}

// IsSecretURI reports whether dest selects the Kubernetes Secret sink.
func IsSecretURI(dest string) bool {
	return strings.HasPrefix(strings.TrimSpace(dest), SecretURIScheme)
}

// NewSecretSink returns a sink for a secret://namespace/name URI.
func NewSecretSink(uri string, opts ...Option) (*SecretSink, error) {
	namespace, name, err := parseSecretURI(strings.TrimSpace(uri))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid token output", err)
	}

	s := &SecretSink{
		Namespace: namespace,
		Name:      name,
		factory:   client.GetKubeClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFileSink returns a sink writing to path. Paths that look like URIs of
// another scheme are rejected.
func NewFileSink(path string) (*FileSink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "token output path is empty")
	}
	if strings.Contains(path, "://") {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported token output scheme in %q (use a file path or %snamespace/name)", path, SecretURIScheme))
	}
	return &FileSink{Path: path}, nil
}

func parseSecretURI(uri string) (namespace, name string, err error) {
	path := strings.TrimPrefix(uri, SecretURIScheme)

	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected %snamespace/name, got %s", SecretURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])

	if namespace == "" {
		return "", "", fmt.Errorf("namespace cannot be empty in %s", uri)
	}
	if name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid secret name in %s", uri)
	}
	return namespace, name, nil
}

// FileSink writes the token to a file readable only by its owner.
type FileSink struct {
	Path string
}

// Store writes token followed by a newline, replacing any previous content.
func (s *FileSink) Store(_ context.Context, token string) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer f.Close()

	// OpenFile keeps the mode of an existing file.
	if err := f.Chmod(fileMode); err != nil {
		return fmt.Errorf("failed to restrict permissions on %s: %w", s.Path, err)
	}
	if _, err := f.WriteString(token + "\n"); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.Path, err)
	}

	slog.Info("token written to file", "path", s.Path)
	return nil
}

func (s *FileSink) String() string {
	return s.Path
}

// SecretSink applies the token into a Kubernetes Secret.
type SecretSink struct {
	Namespace string
	Name      string

	factory client.Factory
	labels  map[string]string
}

// Store server-side applies an Opaque Secret holding the token under "token".
func (s *SecretSink) Store(ctx context.Context, token string) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.KubeWriteTimeout)
	defer cancel()

	cs, config, err := s.factory()
	if err != nil {
		return fmt.Errorf("failed to get kubernetes client: %w", err)
	}

	slog.Info("secret operation",
		"namespace", s.Namespace,
		"name", s.Name,
		"auth_method", client.AuthMethod(config))

	labels := map[string]string{
		"app.kubernetes.io/name":       "grafprov",
		"app.kubernetes.io/component":  "grafana-token",
		"app.kubernetes.io/managed-by": FieldManager,
	}
	for k, v := range s.labels {
		labels[k] = v
	}

	secret := accorev1.Secret(s.Name, s.Namespace).
		WithLabels(labels).
		WithType(corev1.SecretTypeOpaque).
		WithData(map[string][]byte{SecretKey: []byte(token)})

	if _, err := cs.CoreV1().Secrets(s.Namespace).Apply(writeCtx, secret, metav1.ApplyOptions{
		FieldManager: FieldManager,
		Force:        true,
	}); err != nil {
		return fmt.Errorf("failed to apply Secret %s/%s: %w", s.Namespace, s.Name, err)
	}

	return nil
}

func (s *SecretSink) String() string {
	return SecretURIScheme + s.Namespace + "/" + s.Name
}
