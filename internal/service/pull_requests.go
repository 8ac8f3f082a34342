package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tracker-tv/standards-sync/internal/github"
	"github.com/tracker-tv/standards-sync/models"
)

type PullRequest struct {
	Branch string
	Title  string
	Body   string
}

type PullRequestResult struct {
	Number int
	URL    string
	Reused bool
}

type PullRequestService interface {
	Open(ctx context.Context, repo models.Repository, pr PullRequest) (*PullRequestResult, error)
}

type pullRequestService struct {
	gh github.Client
}

func NewPullRequestService(gh github.Client) PullRequestService {
	return &pullRequestService{gh: gh}
}

// Open reuses an open pull request for the branch or creates one. GitHub's
// "already exists" answer to a create counts as success.
func (s *pullRequestService) Open(ctx context.Context, repo models.Repository, pr PullRequest) (*PullRequestResult, error) {
	existingPR, err := s.gh.FindPullRequestByBranch(ctx, repo.Name, pr.Branch)
	if err != nil {
		return nil, fmt.Errorf("finding existing PR: %w", err)
	}
	if existingPR != nil {
		return &PullRequestResult{Number: existingPR.GetNumber(), URL: existingPR.GetHTMLURL(), Reused: true}, nil
	}

	base, err := s.baseBranch(ctx, repo)
	if err != nil {
		return nil, err
	}

	created, err := s.gh.CreatePullRequest(ctx, repo.Name, pr.Title, pr.Body, pr.Branch, base)
	if github.IsPullRequestExists(err) {
		existingPR, findErr := s.gh.FindPullRequestByBranch(ctx, repo.Name, pr.Branch)
		if findErr != nil {
			return nil, fmt.Errorf("finding PR reported as existing: %w", findErr)
		}
		if existingPR == nil {
			return nil, fmt.Errorf("PR for branch %s reported as existing but no open PR was found", pr.Branch)
		}
		return &PullRequestResult{Number: existingPR.GetNumber(), URL: existingPR.GetHTMLURL(), Reused: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating PR: %w", err)
	}

	return &PullRequestResult{Number: created.GetNumber(), URL: created.GetHTMLURL()}, nil
}

func (s *pullRequestService) baseBranch(ctx context.Context, repo models.Repository) (string, error) {
	if repo.DefaultBranch != "" {
		return repo.DefaultBranch, nil
	}
	if _, err := s.gh.GetBranch(ctx, repo.Name, "main"); err == nil {
		return "main", nil
	}
	if _, err := s.gh.GetBranch(ctx, repo.Name, "master"); err != nil {
		return "", fmt.Errorf("getting default branch: %w", err)
	}
	return "master", nil
}

// PullRequestBody renders the default description: what changed, what was
// overruled and what was left alone.
func PullRequestBody(result *models.SyncRunResult) string {
	var b strings.Builder

	b.WriteString("## Organization standards sync\n\n")
	b.WriteString("This PR was automatically created to bring the repository in line with the organization standards.\n\n")
	fmt.Fprintf(&b, "**Platform:** %s (%s)\n\n", result.Platform, result.PlatformSource)

	writeSection := func(title string, results ...models.FileResult) {
		var lines []string
		for _, f := range result.Files {
			for _, r := range results {
				if f.Result == r {
					lines = append(lines, fmt.Sprintf("- `%s` (%s) %s", f.Path, f.Result, f.Reason))
				}
			}
		}
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", title, strings.Join(lines, "\n"))
	}
	writeSection("Changes", models.FileCreated, models.FileOverwritten, models.FileDeleted)

	if conflicts := result.Conflicts(); len(conflicts) > 0 {
		b.WriteString("### Overridden repository exceptions\n\n")
		for _, d := range conflicts {
			fmt.Fprintf(&b, "- `%s` [%s] %s\n", d.Path(), d.Level, d.Reason)
		}
		b.WriteString("\n")
	}
	writeSection("Failed", models.FileFailed)

	b.WriteString("---\n*This is an automated PR. Please review before merging.*\n")
	return b.String()
}
