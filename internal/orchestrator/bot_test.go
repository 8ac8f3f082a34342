package orchestrator

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tracker-tv/standards-sync/internal/policy"
	"github.com/tracker-tv/standards-sync/internal/retry"
	"github.com/tracker-tv/standards-sync/internal/service"
	serviceMocks "github.com/tracker-tv/standards-sync/internal/service/mocks"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testPolicy = `{
	"forced": [{"path": ".github/workflows/compliance.yml", "reason": "compliance gate"}],
	"rules": [
		{"pattern": "**/.env", "level": "NOT_ALLOWED", "reason": "secrets"},
		{"pattern": "LICENSE", "level": "REQUIRED", "reason": "license"},
		{"pattern": ".github/workflows/*.yml", "level": "SUGGESTED", "reason": "workflows"}
	],
	"catalog": {
		"shared": [
			{"source": "common/compliance.yml", "destination": ".github/workflows/compliance.yml"},
			{"source": "common/LICENSE", "destination": "LICENSE"}
		],
		"joomla": [
			{"source": "joomla/ci.yml", "destination": ".github/workflows/ci.yml"}
		]
	}
}`

const seedingPolicy = `{
	"override_template": "templates/standards-sync.yml",
	"rules": [{"pattern": "LICENSE", "level": "REQUIRED", "reason": "license"}],
	"catalog": {"shared": [{"source": "common/LICENSE", "destination": "LICENSE"}]}
}`

var templates = fstest.MapFS{
	"common/compliance.yml":        {Data: []byte("name: compliance\n")},
	"common/LICENSE":               {Data: []byte("MIT\n")},
	"joomla/ci.yml":                {Data: []byte("name: joomla-ci\n")},
	"templates/standards-sync.yml": {Data: []byte("sync:\n  enabled: true\n")},
}

type fakeCopy struct {
	root      string
	branch    string
	committed map[string]string
	pushed    []string
	pushErr   error
}

func (c *fakeCopy) Root() string { return c.root }

func (c *fakeCopy) CheckoutBranch(branch string) error {
	c.branch = branch
	return nil
}

func (c *fakeCopy) Commit(paths []string, _ string) (string, error) {
	if len(paths) == 0 {
		return "", ErrNothingToCommit
	}
	c.committed = map[string]string{}
	for _, p := range paths {
		content, err := os.ReadFile(filepath.Join(c.root, filepath.FromSlash(p)))
		if errors.Is(err, fs.ErrNotExist) {
			c.committed[p] = "<deleted>"
			continue
		}
		if err != nil {
			return "", err
		}
		c.committed[p] = string(content)
	}
	return "0123456789abcdef0123456789abcdef01234567", nil
}

func (c *fakeCopy) Push(_ context.Context, branch string) error {
	if c.pushErr != nil {
		return c.pushErr
	}
	c.pushed = append(c.pushed, branch)
	return nil
}

type fakeVCS struct {
	mu       sync.Mutex
	files    map[string]map[string]string
	cloneErr map[string]error
	pushErr  map[string]error
	copies   map[string]*fakeCopy
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{
		files:    map[string]map[string]string{},
		cloneErr: map[string]error{},
		pushErr:  map[string]error{},
		copies:   map[string]*fakeCopy{},
	}
}

func (f *fakeVCS) Clone(_ context.Context, repo models.Repository, dir string) (WorkingCopy, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(f.delay)

	if err := f.cloneErr[repo.Name]; err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	for name, content := range f.files[repo.Name] {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}

	wc := &fakeCopy{root: dir, pushErr: f.pushErr[repo.Name]}
	f.mu.Lock()
	f.copies[repo.Name] = wc
	f.mu.Unlock()
	return wc, nil
}

func (f *fakeVCS) copyOf(name string) *fakeCopy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copies[name]
}

type fakeDetector struct {
	platform models.Platform
	err      error
}

func (d fakeDetector) Detect(context.Context, workspace.Tree) (models.Platform, error) {
	return d.platform, d.err
}

type memTree map[string]string

func (m memTree) ReadFile(_ context.Context, name string) ([]byte, error) {
	content, ok := m[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(content), nil
}

func (m memTree) List(context.Context) ([]string, error) {
	var out []string
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

type recorder struct {
	mu      sync.Mutex
	results []*models.SyncRunResult
}

func (r *recorder) Observe(result *models.SyncRunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

type harness struct {
	repos    *serviceMocks.MockRepositoryService
	prs      *serviceMocks.MockPullRequestService
	vcs      *fakeVCS
	observed *recorder
	deps     Dependencies
	opts     Options
}

func newHarness(t *testing.T, policyJSON string) *harness {
	t.Helper()

	pol, err := policy.FromJSON([]byte(policyJSON))
	require.NoError(t, err)

	h := &harness{
		repos:    serviceMocks.NewMockRepositoryService(t),
		prs:      serviceMocks.NewMockPullRequestService(t),
		vcs:      newFakeVCS(),
		observed: &recorder{},
	}
	h.deps = Dependencies{
		Repositories: h.repos,
		PullRequests: h.prs,
		VCS:          h.vcs,
		Detector:     fakeDetector{platform: models.PlatformGeneric},
		Policy:       pol,
		Templates:    templates,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observers:    []RepositoryObserver{h.observed},
	}
	h.opts = Options{
		RunID:   "run-1",
		Workers: 2,
		WorkDir: t.TempDir(),
		Retry:   retry.Policy{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	}
	return h
}

func (h *harness) run(t *testing.T, ctx context.Context, repos ...models.Repository) []*models.SyncRunResult {
	t.Helper()
	h.repos.EXPECT().ListAll(mock.Anything).Once().Return(repos, nil)

	results, err := NewSyncBot(h.deps, h.opts).Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, len(repos))
	return results
}

func repository(name string) models.Repository {
	return models.Repository{Name: name, FullName: "org/" + name, CloneURL: "https://github.com/org/" + name + ".git", DefaultBranch: "main"}
}

func fileResults(r *models.SyncRunResult) map[string]models.FileResult {
	out := map[string]models.FileResult{}
	for _, f := range r.Files {
		out[f.Path] = f.Result
	}
	return out
}

func TestNewSyncBot_Defaults(t *testing.T) {
	h := newHarness(t, testPolicy)

	bot := NewSyncBot(h.deps, Options{})

	assert.NotEmpty(t, bot.RunID())
	assert.Equal(t, DefaultWorkers, bot.opts.Workers)
	assert.Equal(t, DefaultBranch, bot.opts.Branch)
	assert.Equal(t, DefaultCommitMessage, bot.opts.CommitMessage)
	assert.Equal(t, DefaultCommitMessage, bot.opts.PullRequestTitle)
	assert.NotEmpty(t, bot.opts.WorkDir)
}

func TestRun_OpensPullRequest(t *testing.T) {
	h := newHarness(t, testPolicy)
	repo := repository("api")
	h.vcs.files["api"] = map[string]string{"README.md": "# api\n", "LICENSE": "Apache\n"}

	h.prs.
		EXPECT().
		Open(mock.Anything, repo, mock.MatchedBy(func(pr service.PullRequest) bool {
			return pr.Branch == DefaultBranch &&
				strings.Contains(pr.Body, "`LICENSE` (overwritten)") &&
				strings.Contains(pr.Body, "`.github/workflows/compliance.yml` (created)")
		})).
		Once().
		Return(&service.PullRequestResult{Number: 7, URL: "https://github.com/org/api/pull/7"}, nil)

	results := h.run(t, context.Background(), repo)
	r := results[0]

	assert.Equal(t, models.StatusSucceeded, r.Status)
	assert.Equal(t, models.StageDone, r.Stage)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, models.PlatformGeneric, r.Platform)
	assert.Equal(t, "detected", r.PlatformSource)
	assert.Equal(t, "https://github.com/org/api/pull/7", r.PullRequestURL)
	assert.Equal(t, DefaultBranch, r.Branch)
	assert.NotEmpty(t, r.CommitSHA)
	assert.Equal(t, map[string]models.FileResult{
		".github/workflows/compliance.yml": models.FileCreated,
		"LICENSE":                          models.FileOverwritten,
	}, fileResults(r))

	wc := h.vcs.copyOf("api")
	assert.Equal(t, DefaultBranch, wc.branch)
	assert.Equal(t, []string{DefaultBranch}, wc.pushed)
	manifest := h.deps.Policy.ManifestPath()
	require.Contains(t, wc.committed, manifest)
	assert.Contains(t, wc.committed[manifest], "- .github/workflows/compliance.yml")
	assert.Contains(t, wc.committed[manifest], "- LICENSE")
	delete(wc.committed, manifest)
	assert.Equal(t, map[string]string{
		".github/workflows/compliance.yml": "name: compliance\n",
		"LICENSE":                          "MIT\n",
	}, wc.committed)

	_, err := os.Stat(wc.root)
	assert.ErrorIs(t, err, fs.ErrNotExist, "working copy is removed after the run")
	assert.Len(t, h.observed.results, 1)
}

func TestRun_UnchangedRepositoryOpensNothing(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.vcs.files["clean"] = map[string]string{
		".github/workflows/compliance.yml": "name: compliance\n",
		"LICENSE":                          "MIT\n",
	}

	results := h.run(t, context.Background(), repository("clean"))
	r := results[0]

	assert.Equal(t, models.StatusUnchanged, r.Status)
	assert.Equal(t, models.StageDone, r.Stage)
	assert.Empty(t, r.CommitSHA)
	assert.Nil(t, h.vcs.copyOf("clean").committed)
	assert.Empty(t, h.vcs.copyOf("clean").branch)
}

func TestRun_SyncDisabled(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.vcs.files["legacy"] = map[string]string{
		".github/standards-sync.yml": "sync:\n  enabled: false\n",
	}

	results := h.run(t, context.Background(), repository("legacy"))
	r := results[0]

	assert.Equal(t, models.StatusDisabled, r.Status)
	assert.True(t, r.Succeeded())
	assert.Empty(t, r.Decisions)
	assert.Empty(t, r.Files)
}

func TestRun_ConfigErrorFailsRepository(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.vcs.files["broken"] = map[string]string{
		".github/standards-sync.yml": "cleanup_mode: sideways\n",
	}

	results := h.run(t, context.Background(), repository("broken"))
	r := results[0]

	assert.Equal(t, models.StatusFailed, r.Status)
	assert.Equal(t, models.StageFailed, r.Stage)
	assert.Equal(t, models.StageOverrideLoaded, r.FailedStage)
	assert.Equal(t, kindConfig, r.ErrorKind)
	assert.Contains(t, r.Error, "cleanup_mode")
}

func TestRun_WarnOnConfigErrorContinuesWithDefaults(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.opts.WarnOnConfigError = true
	repo := repository("broken")
	h.vcs.files["broken"] = map[string]string{
		".github/standards-sync.yml": "cleanup_mode: sideways\n",
	}
	h.prs.EXPECT().Open(mock.Anything, repo, mock.Anything).Once().Return(&service.PullRequestResult{Number: 1}, nil)

	results := h.run(t, context.Background(), repo)
	r := results[0]

	assert.Equal(t, models.StatusSucceeded, r.Status)
	require.NotEmpty(t, r.Warnings)
	assert.Contains(t, r.Warnings[0], "ignoring invalid override")
}

func TestRun_FailureIsIsolatedPerRepository(t *testing.T) {
	h := newHarness(t, testPolicy)
	good := repository("good")
	h.vcs.cloneErr["gone"] = transport.ErrRepositoryNotFound
	h.prs.EXPECT().Open(mock.Anything, good, mock.Anything).Once().Return(&service.PullRequestResult{Number: 2}, nil)

	results := h.run(t, context.Background(), repository("gone"), good)

	assert.Equal(t, models.StatusFailed, results[0].Status)
	assert.Equal(t, models.StageCloned, results[0].FailedStage)
	assert.Equal(t, kindExternal, results[0].ErrorKind)
	assert.Equal(t, models.StatusSucceeded, results[1].Status)
}

func TestRun_PushFailure(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.vcs.pushErr["api"] = transport.ErrAuthorizationFailed

	results := h.run(t, context.Background(), repository("api"))
	r := results[0]

	assert.Equal(t, models.StatusFailed, r.Status)
	assert.Equal(t, models.StagePushed, r.FailedStage)
	assert.NotEmpty(t, r.CommitSHA)
}

func TestRun_PullRequestFailure(t *testing.T) {
	h := newHarness(t, testPolicy)
	repo := repository("api")
	h.prs.EXPECT().Open(mock.Anything, repo, mock.Anything).Return(nil, errors.New("github unavailable"))

	results := h.run(t, context.Background(), repo)
	r := results[0]

	assert.Equal(t, models.StatusFailed, r.Status)
	assert.Equal(t, models.StagePROpened, r.FailedStage)
	assert.Contains(t, r.Error, "github unavailable")
	h.prs.AssertNumberOfCalls(t, "Open", 2)
}

func TestRun_DetectionFailureFallsBackToGeneric(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.deps.Detector = fakeDetector{err: errors.New("detector crashed")}
	h.vcs.files["api"] = map[string]string{
		".github/workflows/compliance.yml": "name: compliance\n",
		"LICENSE":                          "MIT\n",
	}

	results := h.run(t, context.Background(), repository("api"))
	r := results[0]

	assert.Equal(t, models.PlatformGeneric, r.Platform)
	assert.Equal(t, "fallback", r.PlatformSource)
	assert.Equal(t, models.StatusUnchanged, r.Status)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "platform detection failed")
}

func TestRun_OverridePlatformBeatsDetector(t *testing.T) {
	h := newHarness(t, testPolicy)
	repo := repository("site")
	h.vcs.files["site"] = map[string]string{
		".github/standards-sync.yml": "platform: joomla\n",
	}
	h.prs.EXPECT().Open(mock.Anything, repo, mock.Anything).Once().Return(&service.PullRequestResult{Number: 3}, nil)

	results := h.run(t, context.Background(), repo)
	r := results[0]

	assert.Equal(t, models.PlatformJoomla, r.Platform)
	assert.Equal(t, "override", r.PlatformSource)
	assert.Equal(t, models.FileCreated, fileResults(r)[".github/workflows/ci.yml"])
}

func TestRun_ProtectedForcedFileIsOverruled(t *testing.T) {
	h := newHarness(t, testPolicy)
	repo := repository("api")
	h.vcs.files["api"] = map[string]string{
		".github/standards-sync.yml": "protected_files:\n  - path: .github/workflows/compliance.yml\n    reason: local tweaks\n",
		".github/workflows/compliance.yml": "name: tweaked\n",
		"LICENSE":                          "MIT\n",
	}
	h.prs.
		EXPECT().
		Open(mock.Anything, repo, mock.MatchedBy(func(pr service.PullRequest) bool {
			return strings.Contains(pr.Body, "Overridden repository exceptions")
		})).
		Once().
		Return(&service.PullRequestResult{Number: 4}, nil)

	results := h.run(t, context.Background(), repo)
	r := results[0]

	require.Len(t, r.Conflicts(), 1)
	assert.Equal(t, models.LevelForced, r.Conflicts()[0].Level)
	assert.Equal(t, models.FileOverwritten, fileResults(r)[".github/workflows/compliance.yml"])
	assert.NotEmpty(t, r.Warnings, "linting flags the protect entry on a forced path")
}

func TestRun_ObsoleteFileIsDeleted(t *testing.T) {
	h := newHarness(t, testPolicy)
	repo := repository("api")
	h.vcs.files["api"] = map[string]string{
		".github/standards-sync.yml": "cleanup_mode: conservative\nobsolete_files:\n  - path: .travis.yml\n    reason: moved to actions\n",
		".github/workflows/compliance.yml": "name: compliance\n",
		"LICENSE":                          "MIT\n",
		".travis.yml":                      "language: go\n",
	}
	h.prs.EXPECT().Open(mock.Anything, repo, mock.Anything).Once().Return(&service.PullRequestResult{Number: 5}, nil)

	results := h.run(t, context.Background(), repo)
	r := results[0]

	assert.Equal(t, models.FileDeleted, fileResults(r)[".travis.yml"])
	committed := h.vcs.copyOf("api").committed
	assert.Equal(t, "<deleted>", committed[".travis.yml"])
	manifest := h.deps.Policy.ManifestPath()
	require.Contains(t, committed, manifest)
	assert.NotContains(t, committed[manifest], ".travis.yml")
	assert.Len(t, committed, 2)
}

func TestRun_SeedsOverrideFile(t *testing.T) {
	h := newHarness(t, seedingPolicy)
	repo := repository("fresh")
	h.prs.EXPECT().Open(mock.Anything, repo, mock.Anything).Once().Return(&service.PullRequestResult{Number: 6}, nil)

	results := h.run(t, context.Background(), repo)
	r := results[0]

	var seed *models.Decision
	for i := range r.Decisions {
		if r.Decisions[i].Reason == seedReason {
			seed = &r.Decisions[i]
		}
	}
	require.NotNil(t, seed)
	assert.Equal(t, models.LevelOptional, seed.Level)
	assert.Equal(t, models.FileCreated, fileResults(r)[policy.DefaultOverridePath])
	assert.Equal(t, "sync:\n  enabled: true\n", h.vcs.copyOf("fresh").committed[policy.DefaultOverridePath])
}

func TestRun_ExistingOverrideIsNotReseededUnlessForced(t *testing.T) {
	files := map[string]string{
		".github/standards-sync.yml": "cleanup_mode: none\n",
		"LICENSE":                    "MIT\n",
	}

	h := newHarness(t, seedingPolicy)
	h.vcs.files["kept"] = files
	results := h.run(t, context.Background(), repository("kept"))
	assert.Equal(t, models.StatusUnchanged, results[0].Status)

	h = newHarness(t, seedingPolicy)
	h.opts.ForceOverride = true
	repo := repository("kept")
	h.vcs.files["kept"] = files
	h.prs.EXPECT().Open(mock.Anything, repo, mock.Anything).Once().Return(&service.PullRequestResult{Number: 8}, nil)
	results = h.run(t, context.Background(), repo)
	assert.Equal(t, models.FileOverwritten, fileResults(results[0])[policy.DefaultOverridePath])
}

func TestRun_DryRunReadsRemoteTreeOnly(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.opts.DryRun = true
	h.deps.VCS = nil
	h.deps.RemoteTree = func(models.Repository) workspace.Tree {
		return memTree{"LICENSE": "MIT\n"}
	}

	results := h.run(t, context.Background(), repository("api"))
	r := results[0]

	assert.True(t, r.DryRun)
	assert.Equal(t, models.StatusSucceeded, r.Status)
	assert.Empty(t, r.CommitSHA)
	assert.Equal(t, models.FileCreated, fileResults(r)[".github/workflows/compliance.yml"])
	for _, f := range r.Files {
		assert.False(t, f.Applied, f.Path)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	h := newHarness(t, testPolicy)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := h.run(t, ctx, repository("a"), repository("b"))

	for _, r := range results {
		assert.Equal(t, models.StatusFailed, r.Status)
		assert.True(t, r.Cancelled)
		assert.Equal(t, kindCancelled, r.ErrorKind)
		assert.Equal(t, models.StageCloned, r.FailedStage)
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.vcs.delay = 20 * time.Millisecond

	var repos []models.Repository
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		repos = append(repos, repository(name))
		h.vcs.files[name] = map[string]string{
			".github/workflows/compliance.yml": "name: compliance\n",
			"LICENSE":                          "MIT\n",
		}
	}

	results := h.run(t, context.Background(), repos...)

	for i, r := range results {
		assert.Equal(t, repos[i].Name, r.Repository.Name, "results keep listing order")
	}
	assert.LessOrEqual(t, h.vcs.peak.Load(), int32(2))
}

func TestRun_ListFailure(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.repos.EXPECT().ListAll(mock.Anything).Once().Return(nil, errors.New("rate limited"))

	results, err := NewSyncBot(h.deps, h.opts).Run(context.Background())

	assert.Error(t, err)
	assert.Nil(t, results)
}

func TestStageError(t *testing.T) {
	cause := errors.New("boom")
	err := &StageError{Stage: models.StagePushed, Err: cause}

	assert.Equal(t, "pushed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestRun_RecordsSpans(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.vcs.files["clean"] = map[string]string{
		".github/workflows/compliance.yml": "name: compliance\n",
		"LICENSE":                          "MIT\n",
	}
	h.vcs.cloneErr["broken"] = errors.New("connection reset")

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	h.deps.Tracer = tp.Tracer("test")

	h.run(t, context.Background(), repository("clean"), repository("broken"))

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, s := range spans.Ended() {
		byName[s.Name()] = append(byName[s.Name()], s)
	}

	require.Len(t, byName["sync repository"], 2)
	require.Len(t, byName[string(models.StageMaterialized)], 1, "only the clean repository reaches materialization")
	assert.Empty(t, byName[string(models.StagePushed)])

	materialized := byName[string(models.StageMaterialized)][0]
	assert.True(t, materialized.Parent().IsValid())

	require.Len(t, byName[string(models.StageCloned)], 2)
	var failed int
	for _, s := range byName[string(models.StageCloned)] {
		if s.Status().Code == codes.Error {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestRun_CustomPullRequestText(t *testing.T) {
	h := newHarness(t, testPolicy)
	h.opts.CommitMessage = "chore: apply standards"
	h.opts.PullRequestBody = "Quarterly standards refresh."
	repo := repository("api")

	h.prs.
		EXPECT().
		Open(mock.Anything, repo, mock.MatchedBy(func(pr service.PullRequest) bool {
			return pr.Title == "chore: apply standards" &&
				strings.HasPrefix(pr.Body, "Quarterly standards refresh.\n\n") &&
				strings.Contains(pr.Body, "`LICENSE` (created)")
		})).
		Once().
		Return(&service.PullRequestResult{Number: 3, URL: "https://github.com/org/api/pull/3"}, nil)

	results := h.run(t, context.Background(), repo)

	assert.Equal(t, models.StatusSucceeded, results[0].Status)
}

func TestRun_DryRunMatchesRealRun(t *testing.T) {
	files := map[string]string{
		".github/standards-sync.yml": "platform: joomla\n" +
			"cleanup_mode: conservative\n" +
			"protected_files:\n  - path: .github/workflows/compliance.yml\n    reason: local tweaks\n" +
			"obsolete_files:\n  - path: .travis.yml\n    reason: moved to actions\n",
		".github/workflows/compliance.yml": "name: tweaked\n",
		"LICENSE":                          "MIT\n",
		".travis.yml":                      "language: php\n",
	}
	repo := repository("site")

	live := newHarness(t, testPolicy)
	live.vcs.files["site"] = files
	live.prs.EXPECT().Open(mock.Anything, repo, mock.Anything).Once().Return(&service.PullRequestResult{Number: 9}, nil)
	liveResult := live.run(t, context.Background(), repo)[0]

	dry := newHarness(t, testPolicy)
	dry.opts.DryRun = true
	dry.deps.VCS = nil
	dry.deps.RemoteTree = func(models.Repository) workspace.Tree {
		return memTree(files)
	}
	dryResult := dry.run(t, context.Background(), repo)[0]

	require.Equal(t, models.StatusSucceeded, liveResult.Status)
	assert.Equal(t, liveResult.Status, dryResult.Status)
	assert.Equal(t, models.PlatformJoomla, dryResult.Platform)
	assert.Equal(t, liveResult.Platform, dryResult.Platform)
	assert.Equal(t, liveResult.Decisions, dryResult.Decisions)
	assert.Equal(t, fileResults(liveResult), fileResults(dryResult))
	assert.Equal(t, models.FileDeleted, fileResults(dryResult)[".travis.yml"])
	assert.Equal(t, models.FileCreated, fileResults(dryResult)[".github/workflows/ci.yml"])
	assert.Len(t, dryResult.Conflicts(), 1)
}
