package service

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/tracker-tv/standards-sync/internal/github"
	"github.com/tracker-tv/standards-sync/internal/retry"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
)

var _ workspace.Tree = (*RemoteTree)(nil)

// RemoteTree reads a repository's default branch through the GitHub API. Dry
// runs use it in place of a clone.
type RemoteTree struct {
	gh    github.Client
	repo  models.Repository
	retry retry.Policy

	mu    sync.Mutex
	files map[string]struct{}
	list  []string
}

func NewRemoteTree(gh github.Client, repo models.Repository, p retry.Policy) *RemoteTree {
	return &RemoteTree{gh: gh, repo: repo, retry: p}
}

func (t *RemoteTree) ref() string {
	if t.repo.DefaultBranch != "" {
		return t.repo.DefaultBranch
	}
	return "HEAD"
}

func (t *RemoteTree) List(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.files != nil {
		return append([]string(nil), t.list...), nil
	}

	tree, err := retry.Do(ctx, t.retry, func() (*treeResult, error) {
		tree, _, err := t.gh.GetTree(ctx, t.repo.Name, t.ref(), true)
		if err != nil {
			return nil, err
		}
		return &treeResult{paths: github.BlobPaths(tree), truncated: tree.GetTruncated()}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing files of %s: %w", t.repo.Name, err)
	}
	if tree.truncated {
		return nil, fmt.Errorf("listing files of %s: tree truncated by GitHub", t.repo.Name)
	}

	t.list = tree.paths
	t.files = make(map[string]struct{}, len(tree.paths))
	for _, p := range tree.paths {
		t.files[p] = struct{}{}
	}
	return append([]string(nil), t.list...), nil
}

type treeResult struct {
	paths     []string
	truncated bool
}

func (t *RemoteTree) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if _, err := t.List(ctx); err != nil {
		return nil, err
	}
	if _, ok := t.files[name]; !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}

	content, err := retry.Do(ctx, t.retry, func() (string, error) {
		content, _, err := t.gh.GetFileContent(ctx, t.repo.Name, name, t.ref())
		return content, err
	})
	if github.IsNotFound(err) {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", name, t.repo.Name, err)
	}
	return []byte(content), nil
}
