package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tracker-tv/standards-sync/internal/materializer"
	"github.com/tracker-tv/standards-sync/internal/override"
	"github.com/tracker-tv/standards-sync/internal/retry"
	"github.com/tracker-tv/standards-sync/internal/service"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
	"go.opentelemetry.io/otel/codes"
)

const seedReason = "seed repository override file"

// pipeline walks one repository through
// Cloned -> PlatformDetected -> OverrideLoaded -> Resolved -> Materialized ->
// Committed -> Pushed -> PROpened -> Done.
type pipeline struct {
	bot    *SyncBot
	repo   models.Repository
	result *models.SyncRunResult
	log    *slog.Logger

	dir       string
	wc        WorkingCopy
	tree      workspace.Tree
	override  *models.RepositoryOverride
	overrides bool
	changes   materializer.Changeset
	applied   []string
}

func newPipeline(b *SyncBot, repo models.Repository) *pipeline {
	return &pipeline{
		bot:    b,
		repo:   repo,
		result: models.NewSyncRunResult(b.opts.RunID, repo, b.opts.DryRun),
		log:    b.log.With("repository", repo.FullName),
	}
}

type step struct {
	stage models.Stage
	fn    func(ctx context.Context) error
}

func (p *pipeline) run(ctx context.Context) error {
	if !p.bot.opts.KeepWorkDir {
		defer p.cleanup()
	}

	local := []step{
		{models.StageCloned, p.clone},
		{models.StagePlatformDetected, p.detectPlatform},
		{models.StageOverrideLoaded, p.loadOverride},
		{models.StageResolved, p.resolve},
		{models.StageMaterialized, p.materialize},
		{models.StageCommitted, p.commit},
	}
	for _, s := range local {
		if err := p.step(ctx, s); err != nil {
			return err
		}
	}

	// Once a push starts, the branch and its pull request are finished even
	// if the run is cancelled meanwhile.
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: models.StagePushed, Err: err}
	}
	detached := context.WithoutCancel(ctx)
	for _, s := range []step{
		{models.StagePushed, p.push},
		{models.StagePROpened, p.openPullRequest},
	} {
		if err := p.step(detached, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) step(ctx context.Context, s step) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: s.stage, Err: err}
	}

	ctx, span := p.bot.tracer.Start(ctx, string(s.stage))
	defer span.End()

	err := s.fn(ctx)
	switch {
	case errors.Is(err, errStop):
		p.transition(s.stage)
		return err
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: s.stage, Err: err}
	}
	p.transition(s.stage)
	return nil
}

func (p *pipeline) transition(stage models.Stage) {
	p.log.Debug("stage completed", "from", p.result.Stage, "to", stage)
	p.result.Stage = stage
}

func (p *pipeline) warn(msg string) {
	p.result.Warnings = append(p.result.Warnings, msg)
	p.log.Warn(msg)
}

func (p *pipeline) clone(ctx context.Context) error {
	if p.bot.opts.DryRun {
		p.tree = p.bot.deps.RemoteTree(p.repo)
		return nil
	}

	p.dir = filepath.Join(p.bot.opts.WorkDir, p.bot.opts.RunID, p.repo.Name)
	wc, err := retry.Do(ctx, p.bot.retryPolicy(p.log, models.StageCloned), func() (WorkingCopy, error) {
		if err := os.RemoveAll(p.dir); err != nil {
			return nil, err
		}
		return p.bot.deps.VCS.Clone(ctx, p.repo, p.dir)
	})
	if err != nil {
		return err
	}
	p.wc = wc
	p.tree = workspace.NewLocal(wc.Root())
	return nil
}

// detectPlatform never fails the repository: an undetectable platform is
// generic.
func (p *pipeline) detectPlatform(ctx context.Context) error {
	source := "detected"
	platform, err := p.bot.deps.Detector.Detect(ctx, p.tree)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.warn(fmt.Sprintf("platform detection failed, using generic: %v", err))
		platform, source = models.PlatformGeneric, "fallback"
	}
	p.result.Platform = platform
	p.result.PlatformSource = source
	return nil
}

func (p *pipeline) loadOverride(ctx context.Context) error {
	pol := p.bot.deps.Policy
	ov, found, err := override.Load(ctx, p.tree, p.repo.FullName, pol.OverridePath())

	var cfgErr *override.ConfigError
	switch {
	case errors.As(err, &cfgErr) && p.bot.opts.WarnOnConfigError:
		p.warn(fmt.Sprintf("ignoring invalid override, organization defaults apply: %v", cfgErr))
		ov, found = models.DefaultOverride(p.repo.FullName), true
	case err != nil:
		return err
	}

	p.override = ov
	p.overrides = found
	if ov.PlatformType != "" {
		p.result.Platform = ov.PlatformType
		p.result.PlatformSource = "override"
	}
	for _, w := range override.Lint(ov, pol) {
		p.warn(w)
	}

	if !ov.SyncEnabled {
		p.result.Status = models.StatusDisabled
		p.log.Info("sync disabled by repository override")
		return errStop
	}
	return nil
}

func (p *pipeline) resolve(context.Context) error {
	pol := p.bot.deps.Policy
	decisions := p.bot.resolver.ResolveAll(p.override, pol.Catalog(p.result.Platform))

	if tmpl := pol.OverrideTemplate(); tmpl != "" && (!p.overrides || p.bot.opts.ForceOverride) {
		decisions = append(decisions, models.Decision{
			Candidate: models.SyncCandidate{
				Source:      tmpl,
				Destination: pol.OverridePath(),
				Platforms:   []models.Platform{p.result.Platform},
			},
			Action:   models.ActionSync,
			Level:    models.LevelOptional,
			Reason:   seedReason,
			Severity: models.SeverityNone,
		})
	}

	for _, d := range decisions {
		if d.IsOverrideConflict {
			p.log.Warn("repository override overruled", "path", d.Path(), "level", d.Level, "reason", d.Reason)
		}
	}
	p.result.Decisions = decisions
	return nil
}

func (p *pipeline) materialize(ctx context.Context) error {
	changes, err := materializer.Plan(ctx, p.tree, p.bot.deps.Templates, p.result.Decisions, p.override, p.bot.deps.Policy)
	if err != nil {
		return err
	}
	p.changes = changes

	switch {
	case p.bot.opts.DryRun || !changes.HasChanges():
		p.result.Files = materializer.Preview(changes)
	default:
		if err := p.wc.CheckoutBranch(p.bot.opts.Branch); err != nil {
			return err
		}
		p.result.Files = materializer.Apply(p.wc.Root(), changes)
	}

	failed, processed := 0, 0
	for _, f := range p.result.Files {
		switch f.Result {
		case models.FileFailed:
			failed++
			p.log.Error("file failed", "path", f.Path, "error", f.Error)
		case models.FileUnchanged:
			processed++
		case models.FileCreated, models.FileOverwritten, models.FileDeleted:
			processed++
			if f.Applied {
				p.applied = append(p.applied, f.Path)
			}
		}
	}
	if failed > 0 && processed == 0 {
		return fmt.Errorf("%w: %d failures", errNoFileProcessed, failed)
	}
	if m := changes.Manifest; m != nil && len(p.applied) > 0 && !failedFile(p.result.Files, m.Path) {
		p.applied = append(p.applied, m.Path)
	}

	if p.bot.opts.DryRun {
		if changes.HasChanges() {
			p.result.Status = models.StatusSucceeded
		} else {
			p.result.Status = models.StatusUnchanged
		}
		return errStop
	}
	if len(p.applied) == 0 {
		p.result.Status = models.StatusUnchanged
		return errStop
	}
	return nil
}

func (p *pipeline) commit(context.Context) error {
	sha, err := p.wc.Commit(p.applied, p.bot.opts.CommitMessage)
	if isNothingToCommit(err) {
		p.result.Status = models.StatusUnchanged
		return errStop
	}
	if err != nil {
		return err
	}
	p.result.CommitSHA = sha
	p.result.Branch = p.bot.opts.Branch
	return nil
}

func (p *pipeline) push(ctx context.Context) error {
	return retry.Run(ctx, p.bot.retryPolicy(p.log, models.StagePushed), func() error {
		return p.wc.Push(ctx, p.bot.opts.Branch)
	})
}

func (p *pipeline) openPullRequest(ctx context.Context) error {
	body := service.PullRequestBody(p.result)
	if intro := p.bot.opts.PullRequestBody; intro != "" {
		body = intro + "\n\n" + body
	}
	pr := service.PullRequest{
		Branch: p.bot.opts.Branch,
		Title:  p.bot.opts.PullRequestTitle,
		Body:   body,
	}
	res, err := retry.Do(ctx, p.bot.retryPolicy(p.log, models.StagePROpened), func() (*service.PullRequestResult, error) {
		return p.bot.deps.PullRequests.Open(ctx, p.repo, pr)
	})
	if err != nil {
		return err
	}
	p.result.PullRequestURL = res.URL
	if res.Reused {
		p.log.Info("reused open pull request", "url", res.URL)
	}
	return nil
}

// finish settles the terminal state of the result.
func (p *pipeline) finish(err error) {
	r := p.result
	r.FinishedAt = time.Now()

	var stageErr *StageError
	switch {
	case errors.As(err, &stageErr) && !errors.Is(err, errStop):
		r.FailedStage = stageErr.Stage
		r.Stage = models.StageFailed
		r.Status = models.StatusFailed
		r.Error = stageErr.Err.Error()
		r.ErrorKind = errorKind(stageErr.Err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.Cancelled = true
			r.ErrorKind = kindCancelled
		}
		p.log.Error("repository failed", "stage", stageErr.Stage, "kind", r.ErrorKind, "error", stageErr.Err)
		return
	case err == nil:
		r.Status = models.StatusSucceeded
	}

	if r.Status == models.StatusSucceeded && r.Count(models.FileFailed) > 0 {
		r.Status = models.StatusPartial
	}
	if r.Status == models.StatusUnchanged && r.Count(models.FileFailed) > 0 {
		r.Status = models.StatusPartial
	}
	r.Stage = models.StageDone
	p.log.Info("repository synced",
		"status", r.Status,
		"platform", r.Platform,
		"created", r.Count(models.FileCreated),
		"overwritten", r.Count(models.FileOverwritten),
		"deleted", r.Count(models.FileDeleted),
		"skipped", r.Count(models.FileSkipped),
		"blocked", r.Count(models.FileBlocked),
		"failed", r.Count(models.FileFailed),
		"pull_request", r.PullRequestURL,
	)
}

func (p *pipeline) cleanup() {
	if p.dir == "" {
		return
	}
	if err := os.RemoveAll(p.dir); err != nil {
		p.log.Warn("failed to remove working copy", "dir", p.dir, "error", err)
	}
}

func failedFile(files []models.FileOutcome, name string) bool {
	for _, f := range files {
		if f.Path == name && f.Result == models.FileFailed {
			return true
		}
	}
	return false
}
