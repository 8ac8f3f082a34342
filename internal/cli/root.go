// Package cli is the command tree of the standards-sync binary.
package cli

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tracker-tv/standards-sync/internal/config"
	"github.com/tracker-tv/standards-sync/internal/logging"
	"github.com/tracker-tv/standards-sync/internal/policy"
)

// Defaults are the policy and templates compiled into the binary.
type Defaults struct {
	Policy    []byte
	Templates fs.FS
	Version   string
}

type app struct {
	defaults Defaults
	cfg      *config.Config
	logger   *slog.Logger

	policyFile   string
	templateRoot string
	logLevel     string
	logFormat    string
}

func NewRootCommand(defaults Defaults) *cobra.Command {
	a := &app{defaults: defaults}

	root := &cobra.Command{
		Use:   "standards-sync",
		Short: "Synchronize organization standards into every repository",
		Long: `standards-sync copies the organization's workflow and configuration templates
into each repository and opens a pull request with the result.

Every template path is classified by the organization policy into one of six
enforcement levels. Repositories tune the optional ones through a committed
override file; forced, required and prohibited paths cannot be overridden.`,
		Version:       defaults.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.policyFile, "policy", "", "organization policy file (.json, .yaml); defaults to the embedded policy (env SYNC_POLICY_FILE)")
	root.PersistentFlags().StringVar(&a.templateRoot, "templates", "", "template root directory; defaults to the embedded templates (env SYNC_TEMPLATE_ROOT)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (env SYNC_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (env SYNC_LOG_FORMAT)")

	root.AddCommand(
		newSyncCommand(a),
		newScheduleCommand(a),
		newExplainCommand(a),
		newValidateOverrideCommand(a),
	)
	return root
}

// init loads the environment and lets flags win over it.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.policyFile != "" {
		cfg.PolicyFile = a.policyFile
	}
	if a.templateRoot != "" {
		cfg.TemplateRoot = a.templateRoot
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) loadPolicy() (*policy.OrganizationPolicy, error) {
	if a.cfg.PolicyFile != "" {
		return policy.Load(a.cfg.PolicyFile)
	}
	if len(a.defaults.Policy) == 0 {
		return nil, fmt.Errorf("no organization policy: pass --policy")
	}
	return policy.FromJSON(a.defaults.Policy)
}

func (a *app) templates() (fs.FS, error) {
	if a.cfg.TemplateRoot != "" {
		info, err := os.Stat(a.cfg.TemplateRoot)
		if err != nil {
			return nil, fmt.Errorf("template root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("template root %s is not a directory", a.cfg.TemplateRoot)
		}
		return os.DirFS(a.cfg.TemplateRoot), nil
	}
	if a.defaults.Templates == nil {
		return nil, fmt.Errorf("no templates: pass --templates")
	}
	return a.defaults.Templates, nil
}
