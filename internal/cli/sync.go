package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tracker-tv/standards-sync/internal/audit"
	"github.com/tracker-tv/standards-sync/internal/detect"
	"github.com/tracker-tv/standards-sync/internal/git"
	"github.com/tracker-tv/standards-sync/internal/github"
	"github.com/tracker-tv/standards-sync/internal/metrics"
	"github.com/tracker-tv/standards-sync/internal/orchestrator"
	"github.com/tracker-tv/standards-sync/internal/report"
	"github.com/tracker-tv/standards-sync/internal/retry"
	"github.com/tracker-tv/standards-sync/internal/service"
	"github.com/tracker-tv/standards-sync/internal/telemetry"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
)

// ErrRepositoriesFailed makes the process exit non-zero after a run in which
// at least one repository failed.
var ErrRepositoriesFailed = errors.New("repositories failed")

type syncFlags struct {
	org               string
	dryRun            bool
	workers           int
	repos             []string
	exclude           []string
	includeArchived   bool
	includeTemplates  bool
	branch            string
	commitMessage     string
	prTitle           string
	prBody            string
	reportPath        string
	auditDB           string
	metricsFile       string
	workDir           string
	keepWorkDir       bool
	forceOverride     bool
	warnOnConfigError bool
	timeout           time.Duration
}

func (f *syncFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.org, "org", "", "GitHub organization (env SYNC_ORG)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "resolve and report without cloning, committing, pushing or opening PRs")
	fl.IntVar(&f.workers, "workers", 0, "repositories processed in parallel (env SYNC_WORKERS)")
	fl.StringSliceVar(&f.repos, "repos", nil, "only sync these repositories")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "never sync these repositories")
	fl.BoolVar(&f.includeArchived, "include-archived", false, "also sync archived repositories")
	fl.BoolVar(&f.includeTemplates, "include-templates", false, "also sync template repositories")
	fl.StringVar(&f.branch, "branch-name", orchestrator.DefaultBranch, "branch the changes are pushed to")
	fl.StringVar(&f.commitMessage, "commit-message", orchestrator.DefaultCommitMessage, "message of the sync commit")
	fl.StringVar(&f.prTitle, "pr-title", "", "pull request title, defaults to the commit message")
	fl.StringVar(&f.prBody, "pr-body", "", "text placed above the generated pull request description")
	fl.StringVar(&f.reportPath, "report", "", "write the JSON report to this file (env SYNC_REPORT_PATH)")
	fl.StringVar(&f.auditDB, "audit-db", "", "record the run in this SQLite database (env SYNC_AUDIT_DB)")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile (env SYNC_METRICS_FILE)")
	fl.StringVar(&f.workDir, "work-dir", "", "directory for working copies (env SYNC_WORK_DIR)")
	fl.BoolVar(&f.keepWorkDir, "keep-workdir", false, "keep working copies after the run (env SYNC_KEEP_WORKDIR)")
	fl.BoolVar(&f.forceOverride, "force-override", false, "re-seed the repository override file even when present")
	fl.BoolVar(&f.warnOnConfigError, "warn-on-config-error", false, "continue with organization defaults when an override file is invalid")
	fl.DurationVar(&f.timeout, "timeout", 0, "abort the run after this long (env SYNC_TIMEOUT)")
}

// apply lets explicitly set flags win over the environment.
func (f *syncFlags) apply(cmd *cobra.Command, a *app) {
	cfg := a.cfg
	if f.org != "" {
		cfg.Org = f.org
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if f.reportPath != "" {
		cfg.ReportPath = f.reportPath
	}
	if f.auditDB != "" {
		cfg.AuditDB = f.auditDB
	}
	if f.metricsFile != "" {
		cfg.MetricsFile = f.metricsFile
	}
	if f.workDir != "" {
		cfg.WorkDir = f.workDir
	}
	if f.keepWorkDir {
		cfg.KeepWorkDir = true
	}
	if f.timeout > 0 {
		cfg.Timeout = f.timeout
	}
}

func newSyncCommand(a *app) *cobra.Command {
	f := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the organization standards into every repository",
		Example: `  standards-sync sync --org acme --dry-run
  standards-sync sync --org acme --repos api,web --report out/report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, a)
			_, err := a.runSync(cmd.Context(), f, cmd.OutOrStdout())
			return err
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) runSync(ctx context.Context, f *syncFlags, out io.Writer) (report.Summary, error) {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return report.Summary{}, err
	}
	if err := cfg.RequireGitHub(); err != nil {
		return report.Summary{}, err
	}

	pol, err := a.loadPolicy()
	if err != nil {
		return report.Summary{}, fmt.Errorf("load organization policy: %w", err)
	}
	templates, err := a.templates()
	if err != nil {
		return report.Summary{}, err
	}
	detector, err := detect.NewMarkerDetector(detect.DefaultMarkers)
	if err != nil {
		return report.Summary{}, err
	}

	tel, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		ServiceVersion: a.defaults.Version,
	})
	if err != nil {
		return report.Summary{}, fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}()

	retryPolicy := retry.Policy{MaxRetries: cfg.MaxRetries, InitialInterval: cfg.RetryInitialInterval}
	gh := github.New(cfg.GithubToken, cfg.Org, github.WithRetry(retryPolicy))
	collector := metrics.New(nil)

	bot := orchestrator.NewSyncBot(orchestrator.Dependencies{
		Repositories: service.NewRepositoriesService(gh, service.RepositoryFilter{
			Include:          f.repos,
			Exclude:          f.exclude,
			IncludeArchived:  f.includeArchived,
			IncludeTemplates: f.includeTemplates,
		}),
		PullRequests: service.NewPullRequestService(gh),
		VCS: orchestrator.GitVersionControl(git.New(cfg.GithubToken, git.Author{
			Name:  cfg.CommitAuthorName,
			Email: cfg.CommitAuthorEmail,
		})),
		Detector: detector,
		RemoteTree: func(repo models.Repository) workspace.Tree {
			return service.NewRemoteTree(gh, repo, retryPolicy)
		},
		Policy:    pol,
		Templates: templates,
		Logger:    a.logger,
		Tracer:    tel.Tracer,
		Observers: []orchestrator.RepositoryObserver{collector},
	}, orchestrator.Options{
		Workers:           cfg.Workers,
		DryRun:            f.dryRun,
		Branch:            f.branch,
		CommitMessage:     f.commitMessage,
		PullRequestTitle:  f.prTitle,
		PullRequestBody:   f.prBody,
		WorkDir:           cfg.WorkDir,
		KeepWorkDir:       cfg.KeepWorkDir,
		ForceOverride:     f.forceOverride,
		WarnOnConfigError: f.warnOnConfigError,
		Retry:             retryPolicy,
	})

	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	results, err := bot.Run(runCtx)
	if err != nil {
		return report.Summary{}, fmt.Errorf("list repositories of %s: %w", cfg.Org, err)
	}

	summary := report.Build(bot.RunID(), f.dryRun, results)
	report.Render(out, summary)
	a.publish(ctx, summary, collector)

	if summary.HasFailures() {
		return summary, fmt.Errorf("%w: %s", ErrRepositoriesFailed, strings.Join(report.FailedRepositories(results), ", "))
	}
	return summary, nil
}

// publish writes the optional outputs. A failing output is logged and never
// changes the outcome of the run.
func (a *app) publish(ctx context.Context, summary report.Summary, collector *metrics.Collector) {
	cfg := a.cfg
	if cfg.ReportPath != "" {
		if err := report.WriteJSON(cfg.ReportPath, summary); err != nil {
			a.logger.Error("failed to write report", "path", cfg.ReportPath, "error", err)
		}
	}
	if cfg.AuditDB != "" {
		if err := recordAudit(context.WithoutCancel(ctx), cfg.AuditDB, summary); err != nil {
			a.logger.Error("failed to record audit trail", "path", cfg.AuditDB, "error", err)
		}
	}
	if cfg.MetricsFile != "" {
		collector.MarkRunCompleted(time.Now())
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			a.logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
}

func recordAudit(ctx context.Context, path string, summary report.Summary) error {
	store, err := audit.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, summary)
}
