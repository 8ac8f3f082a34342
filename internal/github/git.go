package github

import (
	"context"
	"sort"

	gh "github.com/google/go-github/v80/github"
)

func (c *client) GetTree(ctx context.Context, repo, sha string, recursive bool) (*gh.Tree, *gh.Response, error) {
	return c.git.GetTree(ctx, c.org, repo, sha, recursive)
}

// BlobPaths returns the sorted file paths of a tree, leaving out directories
// and submodules.
func BlobPaths(tree *gh.Tree) []string {
	var paths []string
	for _, e := range tree.Entries {
		if e.GetType() == "blob" {
			paths = append(paths, e.GetPath())
		}
	}
	sort.Strings(paths)
	return paths
}
