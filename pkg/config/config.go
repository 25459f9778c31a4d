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

package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/NVIDIA/grafana-provisioner/pkg/defaults"
	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
)

// DefaultEnvFile is read when no explicit env file is given. Its absence is not an error.
const DefaultEnvFile = ".env"

// Defaults for the optional service account, data source and dashboard settings.
const (
	DefaultTokenName              = "automated_sre_token"
	DefaultPrometheusURL          = "http://prometheus:9090"
	DefaultPrometheusTimeInterval = "5s"
	DefaultDashboardTitle         = "Automated SRE Dashboard"
)

// Config holds everything a provisioning run needs. It is built once by Load
// and then only read.
type Config struct {
	// Grafana connection and admin credentials
	URL           string `env:"GRAFANA_URL" validate:"required,url"`
	AdminUser     string `env:"GRAFANA_ADMIN_USER" validate:"required"`
	AdminPassword string `env:"GRAFANA_ADMIN_PASSWORD" validate:"required"`

	// Service account and token
	ServiceAccountName string `env:"GRAFANA_SERVICE_ACCOUNT_NAME" validate:"required"`
	ServiceAccountRole string `env:"GRAFANA_SERVICE_ACCOUNT_ROLE" validate:"required,oneof=Admin Editor Viewer None"`
	TokenName          string `env:"GRAFANA_TOKEN_NAME" validate:"required"`

	// Data source
	PrometheusURL          string `env:"PROMETHEUS_URL" validate:"required,url"`
	PrometheusTimeInterval string `env:"PROMETHEUS_TIME_INTERVAL" validate:"required"`

	// Dashboard
	DashboardTitle string `env:"GRAFANA_DASHBOARD_TITLE" validate:"required"`

	// Run behavior
	StartupDelay  time.Duration `env:"STARTUP_DELAY" validate:"gte=0s"`
	HTTPTimeout   time.Duration `env:"GRAFANA_HTTP_TIMEOUT" validate:"gt=0s"`
	MaxRetries    int           `env:"GRAFANA_MAX_RETRIES" validate:"gte=0,lte=10"`
	RetryInterval time.Duration `env:"GRAFANA_RETRY_INTERVAL" validate:"gt=0s"`
	RateLimit     float64       `env:"GRAFANA_RATE_LIMIT" validate:"gt=0"`

	MaxRetryElapsed    time.Duration `env:"GRAFANA_MAX_RETRY_ELAPSED" validate:"gt=0s"`
	InsecureSkipVerify bool          `env:"GRAFANA_INSECURE_SKIP_VERIFY"`
}

// Option customizes how Load builds a Config.
type Option func(*loader)

type loader struct {
	envFile     string
	envFileSet  bool
	environment map[string]string
	overrides   []func(*Config)
}

// WithEnvFile reads variables from the given dotenv file. Unlike the default
// .env lookup, a missing file is an error.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
		l.envFileSet = true
	}
}

// WithEnvironment replaces the process environment as the variable source.
// No dotenv file is read when it is set. Intended for tests.
func WithEnvironment(environment map[string]string) Option {
	return func(l *loader) {
		l.environment = environment
	}
}

// WithOverride applies fn after the environment is parsed and before
// validation. CLI flags use it to take precedence over the environment.
func WithOverride(fn func(*Config)) Option {
	return func(l *loader) {
		l.overrides = append(l.overrides, fn)
	}
}

// newDefaults returns a Config pre-populated with every optional default.
func newDefaults() *Config {
	return &Config{
		TokenName:              DefaultTokenName,
		PrometheusURL:          DefaultPrometheusURL,
		PrometheusTimeInterval: DefaultPrometheusTimeInterval,
		DashboardTitle:         DefaultDashboardTitle,
		StartupDelay:           defaults.StartupDelay,
		HTTPTimeout:            defaults.HTTPClientTimeout,
		MaxRetries:             defaults.RetryMaxAttempts,
		RetryInterval:          defaults.RetryInitialInterval,
		RateLimit:              defaults.RateLimitPerSecond,
		MaxRetryElapsed:        defaults.RetryMaxElapsed,
	}
}

// Load builds and validates a Config from defaults, an optional dotenv file,
// the environment and finally any overrides, in increasing precedence.
func Load(opts ...Option) (*Config, error) {
	l := &loader{envFile: DefaultEnvFile}
	for _, opt := range opts {
		opt(l)
	}

	environment, err := l.resolveEnvironment()
	if err != nil {
		return nil, err
	}

	cfg := newDefaults()
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to parse environment", err)
	}

	for _, fn := range l.overrides {
		fn(cfg)
	}

	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *loader) resolveEnvironment() (map[string]string, error) {
	if l.environment != nil {
		return l.environment, nil
	}

	merged := make(map[string]string)

	fileVars, err := godotenv.Read(l.envFile)
	switch {
	case err == nil:
		for k, v := range fileVars {
			merged[k] = v
		}
		slog.Debug("loaded env file", "path", l.envFile, "vars", len(fileVars))
	case l.envFileSet:
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to read env file %s", l.envFile), err)
	case !stderrors.Is(err, os.ErrNotExist):
		slog.Warn("ignoring unreadable env file", "path", l.envFile, "error", err)
	}

	// Real environment wins over the dotenv file, as with load_dotenv().
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}

	return merged, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid configuration", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}

	return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest,
		"invalid configuration: "+strings.Join(problems, "; "),
		map[string]any{"fields": len(problems)})
}

// envNames maps struct fields to the variable that sets them, for error messages.
var envNames = map[string]string{
	"URL":                    "GRAFANA_URL",
	"AdminUser":              "GRAFANA_ADMIN_USER",
	"AdminPassword":          "GRAFANA_ADMIN_PASSWORD",
	"ServiceAccountName":     "GRAFANA_SERVICE_ACCOUNT_NAME",
	"ServiceAccountRole":     "GRAFANA_SERVICE_ACCOUNT_ROLE",
	"TokenName":              "GRAFANA_TOKEN_NAME",
	"PrometheusURL":          "PROMETHEUS_URL",
	"PrometheusTimeInterval": "PROMETHEUS_TIME_INTERVAL",
	"DashboardTitle":         "GRAFANA_DASHBOARD_TITLE",
	"StartupDelay":           "STARTUP_DELAY",
	"HTTPTimeout":            "GRAFANA_HTTP_TIMEOUT",
	"MaxRetries":             "GRAFANA_MAX_RETRIES",
	"RetryInterval":          "GRAFANA_RETRY_INTERVAL",
	"RateLimit":              "GRAFANA_RATE_LIMIT",
	"MaxRetryElapsed":        "GRAFANA_MAX_RETRY_ELAPSED",
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	if v, ok := envNames[name]; ok {
		name = v
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", name, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", name, fe.Tag(), fe.Param(), fe.Value())
	}
}

// LogValue keeps the admin password out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", c.URL),
		slog.String("adminUser", c.AdminUser),
		slog.String("adminPassword", "REDACTED"),
		slog.String("serviceAccount", c.ServiceAccountName),
		slog.String("role", c.ServiceAccountRole),
		slog.String("tokenName", c.TokenName),
		slog.String("prometheusURL", c.PrometheusURL),
		slog.Duration("startupDelay", c.StartupDelay),
		slog.Duration("httpTimeout", c.HTTPTimeout),
		slog.Int("maxRetries", c.MaxRetries),
		slog.Duration("maxRetryElapsed", c.MaxRetryElapsed),
		slog.Bool("insecureSkipVerify", c.InsecureSkipVerify),
	)
}
