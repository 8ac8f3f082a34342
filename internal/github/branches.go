package github

import (
	"context"

	gh "github.com/google/go-github/v80/github"
)

func (c *client) GetBranch(ctx context.Context, repo, branch string) (*gh.Reference, error) {
	ref, _, err := c.references.GetRef(ctx, c.org, repo, "refs/heads/"+branch)
	return ref, err
}
