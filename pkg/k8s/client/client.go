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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Interface is an alias for kubernetes.Interface so sinks can take a fake
// clientset in tests.
type Interface = kubernetes.Interface

// Factory returns a Kubernetes client and the config it was built from.
// GetKubeClient satisfies it.
type Factory func() (Interface, *rest.Config, error)

var (
	clientOnce   sync.Once
	cachedClient *kubernetes.Clientset
	cachedConfig *rest.Config
	clientErr    error
)

// GetKubeClient returns a shared Kubernetes client, building it on first call.
// Configuration is discovered from KUBECONFIG, then ~/.kube/config, then the
// in-cluster service account.
func GetKubeClient() (Interface, *rest.Config, error) {
	clientOnce.Do(func() {
		cachedClient, cachedConfig, clientErr = BuildKubeClient("")
	})
	if clientErr != nil {
		return nil, nil, clientErr
	}
	return cachedClient, cachedConfig, nil
}

// BuildKubeClient creates a Kubernetes client from the given kubeconfig file,
// bypassing the shared instance. An empty path uses the same discovery order
// as GetKubeClient.
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	var config *rest.Config
	var err error

	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")

		if kubeconfig == "" {
			kubeconfig = filepath.Join(homedir.HomeDir(), ".kube", "config")
			if _, err = os.Stat(kubeconfig); os.IsNotExist(err) {
				kubeconfig = ""
			}
		}
	}

	// Go straight to in-cluster config to avoid client-go's
	// "Neither --kubeconfig nor --master was specified" warning.
	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
		}
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return client, config, nil
}

// AuthMethod names how config authenticates, for audit logging. It never
// returns credential material.
func AuthMethod(config *rest.Config) string {
	switch {
	case config == nil:
		return "unknown"
	case config.AuthProvider != nil:
		return config.AuthProvider.Name
	case config.ExecProvider != nil:
		return "exec"
	case config.BearerToken != "" || config.BearerTokenFile != "":
		return "bearer-token"
	case config.CertData != nil || config.CertFile != "":
		return "cert"
	default:
		return "default"
	}
}
