package github

import (
	"context"
	"net/http"

	gh "github.com/google/go-github/v80/github"
	"github.com/tracker-tv/standards-sync/internal/retry"
)

type RepositoriesAdapter interface {
	ListByOrg(ctx context.Context, org string, opts *gh.RepositoryListByOrgOptions) ([]*gh.Repository, *gh.Response, error)
	GetContents(ctx context.Context, owner, repo, path string, opts *gh.RepositoryContentGetOptions) (*gh.RepositoryContent, []*gh.RepositoryContent, *gh.Response, error)
}

type PullRequestsAdapter interface {
	List(ctx context.Context, owner, repo string, opts *gh.PullRequestListOptions) ([]*gh.PullRequest, *gh.Response, error)
	Create(ctx context.Context, owner, repo string, pull *gh.NewPullRequest) (*gh.PullRequest, *gh.Response, error)
}

type GitAdapter interface {
	GetTree(ctx context.Context, owner, repo, sha string, recursive bool) (*gh.Tree, *gh.Response, error)
}

type ReferencesAdapter interface {
	GetRef(ctx context.Context, owner, repo, ref string) (*gh.Reference, *gh.Response, error)
}

// Client is the slice of the GitHub API the sync needs, scoped to one
// organization.
type Client interface {
	Org() string
	ListAllRepos(ctx context.Context) ([]*gh.Repository, error)
	GetBranch(ctx context.Context, repo, branch string) (*gh.Reference, error)
	GetTree(ctx context.Context, repo, sha string, recursive bool) (*gh.Tree, *gh.Response, error)
	GetFileContent(ctx context.Context, repo, path, ref string) (string, string, error)
	ListPullRequests(ctx context.Context, repo string, opts *gh.PullRequestListOptions) ([]*gh.PullRequest, error)
	CreatePullRequest(ctx context.Context, repo, title, body, head, base string) (*gh.PullRequest, error)
	FindPullRequestByBranch(ctx context.Context, repo, branchName string) (*gh.PullRequest, error)
}

type client struct {
	repositories RepositoriesAdapter
	pullRequests PullRequestsAdapter
	git          GitAdapter
	references   ReferencesAdapter
	org          string
	retry        retry.Policy
}

type Option func(*client)

func WithRetry(p retry.Policy) Option {
	return func(c *client) {
		c.retry = p
	}
}

type authTransport struct {
	token string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

func New(token, org string, opts ...Option) Client {
	var httpClient *http.Client
	if token != "" {
		httpClient = &http.Client{
			Transport: &authTransport{
				token: token,
			},
		}
	}
	gc := gh.NewClient(httpClient)
	c := &client{
		repositories: gc.Repositories,
		pullRequests: gc.PullRequests,
		git:          gc.Git,
		references:   gc.Git,
		org:          org,
		retry:        retry.Policy{MaxRetries: 5},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Org() string {
	return c.org
}
