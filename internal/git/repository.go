package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/tracker-tv/standards-sync/models"
)

// ErrNothingToCommit is returned by Commit when none of the given paths
// differ from HEAD.
var ErrNothingToCommit = errors.New("nothing to commit")

type Author struct {
	Name  string
	Email string
}

// Provider clones repositories over HTTPS with a token.
type Provider struct {
	auth   transport.AuthMethod
	author Author
}

func New(token string, author Author) *Provider {
	return &Provider{auth: tokenAuth(token), author: author}
}

// Repository is a local working copy of one cloned repository.
type Repository struct {
	repo   *gogit.Repository
	dir    string
	auth   transport.AuthMethod
	author Author
}

// Clone clones the default branch of repo into dir. dir must not exist or
// be empty.
func (p *Provider) Clone(ctx context.Context, repo models.Repository, dir string) (*Repository, error) {
	if repo.CloneURL == "" {
		return nil, fmt.Errorf("repository %s has no clone URL", repo.FullName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}

	opts := &gogit.CloneOptions{
		URL:          repo.CloneURL,
		Auth:         p.auth,
		SingleBranch: true,
	}
	if repo.DefaultBranch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.DefaultBranch)
	}

	r, err := gogit.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", repo.FullName, err)
	}

	return &Repository{repo: r, dir: dir, auth: p.auth, author: p.author}, nil
}

func (r *Repository) Root() string {
	return r.dir
}

// CheckoutBranch switches to branch, creating it from HEAD when it does not
// exist locally. Uncommitted changes are kept.
func (r *Repository) CheckoutBranch(branch string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	ref := plumbing.NewBranchReferenceName(branch)
	_, err = r.repo.Reference(ref, true)
	create := errors.Is(err, plumbing.ErrReferenceNotFound)
	if err != nil && !create {
		return fmt.Errorf("failed to look up branch %s: %w", branch, err)
	}

	if err := wt.Checkout(&gogit.CheckoutOptions{Branch: ref, Create: create, Keep: true}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branch, err)
	}
	return nil
}

// Commit stages paths (removing the ones deleted from disk) and commits
// them. It returns the new commit SHA.
func (r *Repository) Commit(paths []string, message string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	for _, p := range paths {
		if _, statErr := os.Lstat(filepath.Join(r.dir, filepath.FromSlash(p))); errors.Is(statErr, os.ErrNotExist) {
			if _, err := wt.Remove(p); err != nil {
				return "", fmt.Errorf("failed to stage removal of %s: %w", p, err)
			}
			continue
		}
		if _, err := wt.Add(p); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}
	staged := false
	for _, s := range status {
		if s.Staging != gogit.Unmodified && s.Staging != gogit.Untracked {
			staged = true
			break
		}
	}
	if !staged {
		return "", ErrNothingToCommit
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  r.author.Name,
			Email: r.author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// Push force-pushes branch to origin. The sync branch is owned by the bot,
// so a previous run's branch is replaced.
func (r *Repository) Push(ctx context.Context, branch string) error {
	spec := config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/heads/%s", branch, branch))
	err := r.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: gogit.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       r.auth,
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push %s: %w", branch, err)
	}
	return nil
}
