package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"testing"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	github "github.com/tracker-tv/standards-sync/internal/github/mocks"
)

func TestGetFileContent_Success(t *testing.T) {
	ctx := context.Background()
	repoSvc := github.NewMockRepositoriesAdapter(t)

	fileContent := "cleanup_mode: conservative\n"
	encodedContent := base64.StdEncoding.EncodeToString([]byte(fileContent))

	repoSvc.
		EXPECT().
		GetContents(mock.Anything, "org-name", "repo-name", ".github/standards-sync.yml",
			mock.MatchedBy(func(opts *gh.RepositoryContentGetOptions) bool {
				return opts.Ref == "main"
			}),
		).
		Once().
		Return(
			&gh.RepositoryContent{
				Content:  gh.Ptr(encodedContent),
				Encoding: gh.Ptr("base64"),
				SHA:      gh.Ptr("abc123"),
			},
			nil,
			&gh.Response{},
			nil,
		)

	c := &client{repositories: repoSvc, org: "org-name"}

	content, sha, err := c.GetFileContent(ctx, "repo-name", ".github/standards-sync.yml", "main")

	assert.NoError(t, err)
	assert.Equal(t, fileContent, content)
	assert.Equal(t, "abc123", sha)
}

func TestGetFileContent_NotFound(t *testing.T) {
	ctx := context.Background()
	repoSvc := github.NewMockRepositoriesAdapter(t)

	repoSvc.
		EXPECT().
		GetContents(mock.Anything, "org-name", "repo-name", "LICENSE", mock.Anything).
		Once().
		Return(nil, nil, nil, &gh.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}})

	c := &client{repositories: repoSvc, org: "org-name"}

	content, sha, err := c.GetFileContent(ctx, "repo-name", "LICENSE", "main")

	assert.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Empty(t, content)
	assert.Empty(t, sha)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("read: %w", &gh.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}})))
	assert.False(t, IsNotFound(&gh.ErrorResponse{Response: &http.Response{StatusCode: http.StatusForbidden}}))
	assert.False(t, IsNotFound(errors.New("not found")))
	assert.False(t, IsNotFound(nil))
}
