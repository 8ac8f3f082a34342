package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tracker-tv/standards-sync/internal/logging"
)

type Config struct {
	GithubToken string `env:"SYNC_GITHUB_TOKEN"`
	Org         string `env:"SYNC_ORG"`

	Workers              int           `env:"SYNC_WORKERS" envDefault:"4"`
	MaxRetries           int           `env:"SYNC_MAX_RETRIES" envDefault:"3"`
	RetryInitialInterval time.Duration `env:"SYNC_RETRY_INITIAL_INTERVAL" envDefault:"1s"`
	Timeout              time.Duration `env:"SYNC_TIMEOUT" envDefault:"30m"`

	WorkDir      string `env:"SYNC_WORK_DIR"`
	KeepWorkDir  bool   `env:"SYNC_KEEP_WORKDIR"`
	TemplateRoot string `env:"SYNC_TEMPLATE_ROOT"`
	PolicyFile   string `env:"SYNC_POLICY_FILE"`
	ReportPath   string `env:"SYNC_REPORT_PATH"`
	AuditDB      string `env:"SYNC_AUDIT_DB"`
	MetricsFile  string `env:"SYNC_METRICS_FILE"`

	LogLevel  string `env:"SYNC_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SYNC_LOG_FORMAT" envDefault:"text"`

	CommitAuthorName  string `env:"SYNC_COMMIT_AUTHOR_NAME" envDefault:"standards-sync[bot]"`
	CommitAuthorEmail string `env:"SYNC_COMMIT_AUTHOR_EMAIL" envDefault:"standards-sync@users.noreply.github.com"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and the logging settings. It does not require
// GitHub credentials, see RequireGitHub.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("max retries must be between 0 and 10, got %d", c.MaxRetries))
	}
	if c.RetryInitialInterval <= 0 {
		errs = append(errs, fmt.Errorf("retry initial interval must be positive, got %s", c.RetryInitialInterval))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat))
	}
	return errors.Join(errs...)
}

// RequireGitHub is checked by the commands that talk to GitHub.
func (c *Config) RequireGitHub() error {
	var errs []error
	if c.GithubToken == "" {
		errs = append(errs, errors.New("SYNC_GITHUB_TOKEN is required"))
	}
	if c.Org == "" {
		errs = append(errs, errors.New("an organization is required (SYNC_ORG or --org)"))
	}
	return errors.Join(errs...)
}
