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
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
)

// URIScheme is the URI scheme for OCI registry targets (e.g., "oci://ghcr.io/org/repo:tag").
const URIScheme = "oci://"

// DefaultTag is applied when a reference carries no tag.
const DefaultTag = "latest"

// Reference is a registry location for the dashboard artifact.
type Reference struct {
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the repository path (e.g., "sre/dashboards").
	Repository string
	// Tag is the artifact tag.
	Tag string
}

// ParseReference parses "oci://registry/repository[:tag]". The scheme is
// optional. A missing tag becomes DefaultTag.
func ParseReference(target string) (*Reference, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(target), URIScheme)
	if raw == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "OCI reference is empty")
	}

	ref, err := reference.ParseNormalizedNamed(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}
	if _, ok := ref.(reference.Digested); ok {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "OCI reference must use a tag, not a digest")
	}

	tag := DefaultTag
	if tagged, ok := ref.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	return NewReference(reference.Domain(ref), reference.Path(ref), tag)
}

// NewReference validates the parts of a reference. The registry may carry
// an http:// or https:// prefix, which is dropped.
func NewReference(registry, repository, tag string) (*Reference, error) {
	if tag == "" {
		tag = DefaultTag
	}
	registry = stripProtocol(strings.TrimSpace(registry))
	repository = strings.TrimSpace(repository)

	if err := ValidateRegistryReference(registry, repository); err != nil {
		return nil, err
	}

	r := &Reference{Registry: registry, Repository: repository, Tag: tag}
	if _, err := reference.ParseNormalizedNamed(r.ImageReference()); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid tag %q", tag), err)
	}
	return r, nil
}

// ValidateRegistryReference checks that registry and repository form a
// valid image name.
func ValidateRegistryReference(registry, repository string) error {
	if registry == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "registry is required")
	}
	if repository == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "repository is required")
	}

	name := fmt.Sprintf("%s/%s", stripProtocol(registry), repository)
	if _, err := reference.ParseNormalizedNamed(name); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid registry reference %q", name), err)
	}
	return nil
}

// String returns "oci://registry/repository:tag".
func (r *Reference) String() string {
	return URIScheme + r.ImageReference()
}

// ImageReference returns the Docker-style reference without the scheme.
func (r *Reference) ImageReference() string {
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// stripProtocol removes http:// or https:// prefix from a registry URL.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}
