package github

import (
	"context"
	"errors"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/tracker-tv/standards-sync/internal/retry"
)

type repoPage struct {
	repos []*gh.Repository
	resp  *gh.Response
}

func (c *client) ListAllRepos(ctx context.Context) ([]*gh.Repository, error) {
	var allRepos []*gh.Repository
	opts := &gh.RepositoryListByOrgOptions{
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	for {
		page, err := retry.Do(ctx, c.retry, func() (repoPage, error) {
			repos, resp, err := c.repositories.ListByOrg(ctx, c.org, opts)
			if err != nil {
				waitForReset(ctx, err)
				return repoPage{}, err
			}
			return repoPage{repos: repos, resp: resp}, nil
		})
		if err != nil {
			return nil, err
		}

		allRepos = append(allRepos, page.repos...)

		if page.resp == nil || page.resp.NextPage == 0 {
			break
		}
		opts.Page = page.resp.NextPage
	}

	return allRepos, nil
}

// waitForReset blocks until the primary rate limit window resets, so the
// following retry does not burn an attempt on a guaranteed 403.
func waitForReset(ctx context.Context, err error) {
	var rateLimitErr *gh.RateLimitError
	if !errors.As(err, &rateLimitErr) {
		return
	}
	waitDuration := time.Until(rateLimitErr.Rate.Reset.Time)
	if waitDuration <= 0 {
		return
	}

	select {
	case <-time.After(waitDuration):
	case <-ctx.Done():
	}
}
