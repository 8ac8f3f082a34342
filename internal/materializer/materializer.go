package materializer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/tracker-tv/standards-sync/internal/override"
	"github.com/tracker-tv/standards-sync/internal/policy"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
)

// FileError is a failure confined to one file. It never aborts the
// repository on its own.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Operation is one planned file action. Write operations carry the template
// bytes so that applying a plan never re-reads templates.
type Operation struct {
	Path     string
	Result   models.FileResult
	Decision *models.Decision
	Reason   string
	Content  []byte
	Mode     fs.FileMode
	Err      error
}

// Changeset is the ordered list of operations for one repository. Manifest,
// when set, rewrites the record of synced files alongside the operations.
type Changeset struct {
	Operations []Operation
	Manifest   *Operation
}

// HasChanges reports whether applying the plan would touch the working copy.
// A manifest update alone is not a change.
func (p Changeset) HasChanges() bool {
	return len(p.ChangedPaths()) > 0
}

// ChangedPaths lists created, overwritten and deleted paths in plan order.
func (p Changeset) ChangedPaths() []string {
	var paths []string
	for _, op := range p.Operations {
		switch op.Result {
		case models.FileCreated, models.FileOverwritten, models.FileDeleted:
			paths = append(paths, op.Path)
		}
	}
	return paths
}

// Plan computes what Apply would do. It only reads: templates from the
// template root and current contents from tree. Dry runs and real runs share
// it, which keeps their outcomes identical.
func Plan(ctx context.Context, tree workspace.Tree, templates fs.FS, decisions []models.Decision, ov *models.RepositoryOverride, pol *policy.OrganizationPolicy) (Changeset, error) {
	var plan Changeset
	for i := range decisions {
		if err := ctx.Err(); err != nil {
			return Changeset{}, err
		}
		d := decisions[i]
		plan.Operations = append(plan.Operations, planDecision(ctx, tree, templates, &d))
	}

	previous, current := readManifest(ctx, tree, pol.ManifestPath())
	deletions, err := planCleanup(ctx, tree, decisions, ov, pol, previous)
	if err != nil {
		return Changeset{}, err
	}
	plan.Operations = append(plan.Operations, deletions...)

	if plan.HasChanges() {
		plan.Manifest, err = planManifest(ctx, tree, pol.ManifestPath(), plan.Operations, previous, current)
		if err != nil {
			return Changeset{}, fmt.Errorf("update sync manifest: %w", err)
		}
	}
	return plan, nil
}

func planDecision(ctx context.Context, tree workspace.Tree, templates fs.FS, d *models.Decision) Operation {
	op := Operation{Path: d.Path(), Decision: d, Reason: d.Reason}

	switch d.Action {
	case models.ActionBlock:
		op.Result = models.FileBlocked
		return op
	case models.ActionSkip:
		op.Result = models.FileSkipped
		return op
	}

	dest, err := workspace.Clean(d.Path())
	if err != nil {
		return failed(op, "write", err)
	}
	op.Path = dest

	content, err := fs.ReadFile(templates, d.Candidate.Source)
	if err != nil {
		return failed(op, "read template", err)
	}
	op.Content = content
	op.Mode = templateMode(templates, d.Candidate.Source)

	current, err := tree.ReadFile(ctx, dest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		op.Result = models.FileCreated
	case err != nil:
		return failed(op, "read", err)
	case bytes.Equal(current, content):
		op.Result = models.FileUnchanged
		op.Content = nil
	default:
		op.Result = models.FileOverwritten
	}
	return op
}

func failed(op Operation, verb string, err error) Operation {
	op.Result = models.FileFailed
	op.Content = nil
	op.Err = &FileError{Path: op.Path, Op: verb, Err: err}
	return op
}

func templateMode(templates fs.FS, name string) fs.FileMode {
	info, err := fs.Stat(templates, name)
	if err == nil && info.Mode().Perm()&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

// planCleanup selects deletions. none deletes nothing; conservative deletes
// obsolete_files matches; aggressive also removes files an earlier run synced
// directly under a managed directory that are no longer candidates. A path
// synced this run, protected, the override file or manifest itself, or
// matched by a FORCED, REQUIRED or NOT_ALLOWED rule is kept.
func planCleanup(ctx context.Context, tree workspace.Tree, decisions []models.Decision, ov *models.RepositoryOverride, pol *policy.OrganizationPolicy, previous map[string]struct{}) ([]Operation, error) {
	if ov == nil || ov.CleanupMode == models.CleanupNone || ov.CleanupMode == "" {
		return nil, nil
	}

	files, err := tree.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repository files: %w", err)
	}

	candidates := make(map[string]models.Action, len(decisions))
	for _, d := range decisions {
		candidates[d.Path()] = d.Action
	}
	managed := make(map[string]struct{})
	for _, dir := range pol.ManagedDirs() {
		managed[dir] = struct{}{}
	}

	var ops []Operation
	for _, f := range files {
		reason := ""
		if e, ok := override.Find(ov.ObsoleteRules, f); ok {
			reason = "obsolete: " + e.Reason
		} else if ov.CleanupMode == models.CleanupAggressive {
			_, wasSynced := previous[f]
			_, isManaged := managed[path.Dir(f)]
			_, isCandidate := candidates[f]
			if wasSynced && isManaged && !isCandidate {
				reason = "previously synced, no longer part of the catalog under " + path.Dir(f)
			}
		}
		if reason == "" {
			continue
		}

		if keep := keepReason(f, candidates, ov, pol); keep != "" {
			if _, obsolete := override.Find(ov.ObsoleteRules, f); obsolete {
				ops = append(ops, Operation{Path: f, Result: models.FileSkipped, Reason: "not deleted: " + keep})
			}
			continue
		}
		ops = append(ops, Operation{Path: f, Result: models.FileDeleted, Reason: reason})
	}
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })
	return ops, nil
}

func keepReason(f string, candidates map[string]models.Action, ov *models.RepositoryOverride, pol *policy.OrganizationPolicy) string {
	if candidates[f] == models.ActionSync {
		return "synced in this run"
	}
	if f == pol.OverridePath() {
		return "repository override file"
	}
	if f == pol.ManifestPath() {
		return "sync manifest"
	}
	if _, ok := override.Find(ov.ProtectRules, f); ok {
		return "protected"
	}
	if rule, ok := pol.Match(f); ok {
		switch rule.Level {
		case models.LevelForced, models.LevelRequired, models.LevelNotAllowed:
			return "path is " + rule.Level.String()
		}
	}
	return ""
}

// Apply executes plan against the working copy at root. Failures are recorded
// per file and never stop the remaining operations. The manifest is written
// last and only reported when writing it fails.
func Apply(root string, plan Changeset) []models.FileOutcome {
	outcomes := make([]models.FileOutcome, 0, len(plan.Operations))
	for _, op := range plan.Operations {
		if op.Err == nil {
			switch op.Result {
			case models.FileCreated, models.FileOverwritten:
				op.Err = write(root, op)
			case models.FileDeleted:
				op.Err = remove(root, op.Path)
			}
			if op.Err != nil {
				op.Result = models.FileFailed
			}
		}
		outcomes = append(outcomes, outcome(op, op.Err == nil && isChange(op.Result)))
	}
	if m := plan.Manifest; m != nil {
		if err := write(root, *m); err != nil {
			op := *m
			op.Result = models.FileFailed
			op.Err = err
			outcomes = append(outcomes, outcome(op, false))
		}
	}
	return outcomes
}

// Preview reports the planned outcomes without touching anything.
func Preview(plan Changeset) []models.FileOutcome {
	outcomes := make([]models.FileOutcome, 0, len(plan.Operations))
	for _, op := range plan.Operations {
		outcomes = append(outcomes, outcome(op, false))
	}
	return outcomes
}

func outcome(op Operation, applied bool) models.FileOutcome {
	o := models.FileOutcome{
		Path:     op.Path,
		Result:   op.Result,
		Decision: op.Decision,
		Reason:   op.Reason,
		Applied:  applied,
	}
	if op.Err != nil {
		o.Error = op.Err.Error()
	}
	return o
}

func isChange(r models.FileResult) bool {
	return r == models.FileCreated || r == models.FileOverwritten || r == models.FileDeleted
}

func write(root string, op Operation) error {
	full, err := workspace.SafeJoin(root, op.Path)
	if err != nil {
		return &FileError{Path: op.Path, Op: "write", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &FileError{Path: op.Path, Op: "mkdir", Err: err}
	}
	mode := op.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(full, op.Content, mode); err != nil {
		return &FileError{Path: op.Path, Op: "write", Err: err}
	}
	return nil
}

func remove(root, name string) error {
	full, err := workspace.SafeJoin(root, name)
	if err != nil {
		return &FileError{Path: name, Op: "delete", Err: err}
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &FileError{Path: name, Op: "delete", Err: err}
	}
	return nil
}
