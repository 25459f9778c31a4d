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
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/NVIDIA/grafana-provisioner/pkg/defaults"
	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
)

const (
	// ArtifactType is the OCI artifact type of a pushed dashboard.
	ArtifactType = "application/vnd.grafprov.dashboard"

	// LayerMediaType is the media type of the dashboard JSON layer.
	LayerMediaType = "application/vnd.grafprov.dashboard.v1+json"

	// LayerFileName is the file name recorded in the layer title annotation.
	LayerFileName = "dashboard.json"
)

// PushOptions configures a dashboard push.
type PushOptions struct {
	// Reference is the destination.
	Reference *Reference
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Annotations are added to the manifest.
	Annotations map[string]string
}

// PushResult contains the result of a successful OCI push.
type PushResult struct {
	// Digest is the SHA256 digest of the pushed manifest.
	Digest string `json:"digest" yaml:"digest"`
	// Reference is the full image reference (registry/repository:tag).
	Reference string `json:"reference" yaml:"reference"`
	// Size is the dashboard layer size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// Push packs the dashboard JSON as a single-layer OCI artifact and pushes
// it to the registry in opts.Reference using Docker credentials.
func Push(ctx context.Context, opts PushOptions, dashboardJSON []byte) (*PushResult, error) {
	if opts.Reference == nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "OCI reference is required")
	}

	pushCtx, cancel := context.WithTimeout(ctx, defaults.CLIPushTimeout)
	defer cancel()

	repo, err := remoteTarget(opts)
	if err != nil {
		return nil, err
	}
	return push(pushCtx, opts, dashboardJSON, repo)
}

// push packs into a temporary file store and copies the tagged manifest to dst.
func push(ctx context.Context, opts PushOptions, dashboardJSON []byte, dst oras.Target) (*PushResult, error) {
	if len(dashboardJSON) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "dashboard content is empty")
	}
	tag := opts.Reference.Tag

	workDir, err := os.MkdirTemp("", "grafprov-push-*")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create temp directory", err)
	}
	defer os.RemoveAll(workDir)

	path := filepath.Join(workDir, LayerFileName)
	if err := os.WriteFile(path, dashboardJSON, 0o600); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to stage dashboard", err)
	}

	fs, err := file.New(workDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	layerDesc, err := fs.Add(ctx, LayerFileName, LayerMediaType, path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to add dashboard to store", err)
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layerDesc},
		ManifestAnnotations: opts.Annotations,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}

	if tagErr := fs.Tag(ctx, manifestDesc, tag); tagErr != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in local store", tagErr)
	}

	desc, err := oras.Copy(ctx, fs, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeTransport, "failed to push dashboard to registry", err,
			map[string]any{"reference": opts.Reference.ImageReference()})
	}

	slog.Info("dashboard pushed",
		"reference", opts.Reference.ImageReference(),
		"digest", desc.Digest.String(),
		"size", layerDesc.Size)

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: opts.Reference.ImageReference(),
		Size:      layerDesc.Size,
	}, nil
}

func remoteTarget(opts PushOptions) (oras.Target, error) {
	ref := opts.Reference
	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", ref.Registry, ref.Repository))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)
	return repo, nil
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credentials unavailable, pushing anonymously", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
