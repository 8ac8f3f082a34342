package orchestrator

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tracker-tv/standards-sync/internal/detect"
	"github.com/tracker-tv/standards-sync/internal/policy"
	"github.com/tracker-tv/standards-sync/internal/resolver"
	"github.com/tracker-tv/standards-sync/internal/retry"
	"github.com/tracker-tv/standards-sync/internal/service"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBranch        = "chore/standards-sync"
	DefaultCommitMessage = "chore: sync organization standards"
	DefaultWorkers       = 4
)

// RepositoryObserver is told about every repository once its pipeline ends.
type RepositoryObserver interface {
	Observe(result *models.SyncRunResult)
}

type Dependencies struct {
	Repositories service.RepositoryService
	PullRequests service.PullRequestService
	VCS          VersionControl
	Detector     detect.Detector
	// RemoteTree gives dry runs a read-only view of a repository without cloning.
	RemoteTree func(repo models.Repository) workspace.Tree
	Policy     *policy.OrganizationPolicy
	Templates  fs.FS
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Observers  []RepositoryObserver
}

type Options struct {
	RunID             string
	Workers           int
	DryRun            bool
	Branch            string
	CommitMessage     string
	PullRequestTitle  string
	// PullRequestBody, when set, introduces the generated change list.
	PullRequestBody   string
	WorkDir           string
	KeepWorkDir       bool
	ForceOverride     bool
	WarnOnConfigError bool
	Retry             retry.Policy
}

type SyncBot struct {
	deps     Dependencies
	opts     Options
	resolver *resolver.Resolver
	log      *slog.Logger
	tracer   trace.Tracer
}

func NewSyncBot(deps Dependencies, opts Options) *SyncBot {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if opts.CommitMessage == "" {
		opts.CommitMessage = DefaultCommitMessage
	}
	if opts.PullRequestTitle == "" {
		opts.PullRequestTitle = opts.CommitMessage
	}
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "standards-sync")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	return &SyncBot{
		deps:     deps,
		opts:     opts,
		resolver: resolver.New(deps.Policy),
		log:      logger.With("component", "orchestrator", "run_id", opts.RunID),
		tracer:   tracer,
	}
}

func (b *SyncBot) RunID() string {
	return b.opts.RunID
}

// Run syncs every listed repository with at most Workers in flight. One
// repository failing never stops the others. The error is non-nil only when
// the repository list could not be fetched.
func (b *SyncBot) Run(ctx context.Context) ([]*models.SyncRunResult, error) {
	repos, err := b.deps.Repositories.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	b.log.Info("starting sync", "repositories", len(repos), "workers", b.opts.Workers, "dry_run", b.opts.DryRun)

	results := make([]*models.SyncRunResult, len(repos))

	var g errgroup.Group
	g.SetLimit(b.opts.Workers)
	for i, repo := range repos {
		g.Go(func() error {
			results[i] = b.syncRepository(ctx, repo)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (b *SyncBot) syncRepository(ctx context.Context, repo models.Repository) *models.SyncRunResult {
	ctx, span := b.tracer.Start(ctx, "sync repository", trace.WithAttributes(
		attribute.String("repository", repo.FullName),
		attribute.Bool("dry_run", b.opts.DryRun),
	))
	defer span.End()

	p := newPipeline(b, repo)
	err := p.run(ctx)
	p.finish(err)

	span.SetAttributes(
		attribute.String("status", string(p.result.Status)),
		attribute.String("platform", string(p.result.Platform)),
	)
	if p.result.Status == models.StatusFailed {
		span.RecordError(err)
	}

	for _, o := range b.deps.Observers {
		o.Observe(p.result)
	}
	return p.result
}

func (b *SyncBot) retryPolicy(log *slog.Logger, stage models.Stage) retry.Policy {
	p := b.opts.Retry
	p.Notify = func(err error, wait time.Duration) {
		log.Warn("retrying", "stage", stage, "error", err, "wait", wait)
	}
	return p
}
