package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracker-tv/standards-sync/models"
)

func createSourceRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# demo\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.yml"), []byte("legacy\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Add("old.yml")
	require.NoError(t, err)
	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir, repo
}

func cloneSource(t *testing.T) (*Repository, *gogit.Repository) {
	t.Helper()

	sourceDir, source := createSourceRepo(t)
	p := New("", Author{Name: "standards-bot", Email: "bot@example.com"})

	r, err := p.Clone(context.Background(), models.Repository{
		Name:     "demo",
		FullName: "org/demo",
		CloneURL: sourceDir,
	}, filepath.Join(t.TempDir(), "demo"))
	require.NoError(t, err)
	return r, source
}

func TestClone(t *testing.T) {
	r, _ := cloneSource(t)

	content, err := os.ReadFile(filepath.Join(r.Root(), "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# demo\n", string(content))
}

func TestClone_Errors(t *testing.T) {
	p := New("", Author{})

	_, err := p.Clone(context.Background(), models.Repository{FullName: "org/none"}, t.TempDir())
	assert.ErrorContains(t, err, "has no clone URL")

	_, err = p.Clone(context.Background(), models.Repository{
		FullName: "org/missing",
		CloneURL: "/nonexistent/repo",
	}, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "failed to clone org/missing")
}

func TestCheckoutBranch(t *testing.T) {
	r, _ := cloneSource(t)

	require.NoError(t, r.CheckoutBranch("standards-sync"))
	head, err := r.repo.Head()
	require.NoError(t, err)
	assert.Equal(t, plumbing.NewBranchReferenceName("standards-sync"), head.Name())

	// checking out an existing branch does not recreate it
	require.NoError(t, r.CheckoutBranch("standards-sync"))
}

func TestCommit(t *testing.T) {
	r, _ := cloneSource(t)
	require.NoError(t, r.CheckoutBranch("standards-sync"))

	require.NoError(t, os.MkdirAll(filepath.Join(r.Root(), ".github"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(r.Root(), ".github", "ci.yml"), []byte("on: push\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(r.Root(), "old.yml")))

	sha, err := r.Commit([]string{".github/ci.yml", "old.yml"}, "chore: sync organization standards")
	require.NoError(t, err)
	assert.Len(t, sha, 40)

	commit, err := r.repo.CommitObject(plumbing.NewHash(sha))
	require.NoError(t, err)
	assert.Equal(t, "standards-bot", commit.Author.Name)
	assert.Equal(t, "chore: sync organization standards", commit.Message)

	_, err = commit.File(".github/ci.yml")
	assert.NoError(t, err)
	_, err = commit.File("old.yml")
	assert.ErrorIs(t, err, object.ErrFileNotFound)
}

func TestCommit_NothingToCommit(t *testing.T) {
	r, _ := cloneSource(t)

	_, err := r.Commit([]string{"README.md"}, "noop")
	assert.ErrorIs(t, err, ErrNothingToCommit)
}

func TestPush(t *testing.T) {
	r, source := cloneSource(t)
	require.NoError(t, r.CheckoutBranch("standards-sync"))
	require.NoError(t, os.WriteFile(filepath.Join(r.Root(), "LICENSE"), []byte("MIT\n"), 0o644))
	sha, err := r.Commit([]string{"LICENSE"}, "add license")
	require.NoError(t, err)

	require.NoError(t, r.Push(context.Background(), "standards-sync"))

	ref, err := source.Reference(plumbing.NewBranchReferenceName("standards-sync"), true)
	require.NoError(t, err)
	assert.Equal(t, sha, ref.Hash().String())

	// pushing again with nothing new is not an error
	assert.NoError(t, r.Push(context.Background(), "standards-sync"))
}

func TestTokenAuth(t *testing.T) {
	assert.Nil(t, tokenAuth(""))
	assert.Equal(t, "http-basic-auth", tokenAuth("ghp_secret").Name())
}
