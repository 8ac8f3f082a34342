package orchestrator

import (
	"context"
	"errors"

	"github.com/tracker-tv/standards-sync/internal/git"
	"github.com/tracker-tv/standards-sync/models"
)

// VersionControl clones a repository into a local working copy.
type VersionControl interface {
	Clone(ctx context.Context, repo models.Repository, dir string) (WorkingCopy, error)
}

type WorkingCopy interface {
	Root() string
	CheckoutBranch(branch string) error
	// Commit returns ErrNothingToCommit when paths carry no change.
	Commit(paths []string, message string) (string, error)
	Push(ctx context.Context, branch string) error
}

var ErrNothingToCommit = git.ErrNothingToCommit

type gitVersionControl struct {
	provider *git.Provider
}

// GitVersionControl adapts the go-git provider.
func GitVersionControl(p *git.Provider) VersionControl {
	return gitVersionControl{provider: p}
}

func (g gitVersionControl) Clone(ctx context.Context, repo models.Repository, dir string) (WorkingCopy, error) {
	r, err := g.provider.Clone(ctx, repo, dir)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func isNothingToCommit(err error) bool {
	return errors.Is(err, ErrNothingToCommit)
}
