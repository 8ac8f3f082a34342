package service

import (
	"context"

	"github.com/tracker-tv/standards-sync/internal/github"
	"github.com/tracker-tv/standards-sync/models"
)

// RepositoryFilter narrows the organization listing. Include, when set, keeps
// only the named repositories; Exclude always wins over Include.
type RepositoryFilter struct {
	Include          []string
	Exclude          []string
	IncludeArchived  bool
	IncludeTemplates bool
}

type RepositoryService interface {
	ListAll(ctx context.Context) ([]models.Repository, error)
}

type repositoriesService struct {
	gh     github.Client
	filter RepositoryFilter
}

func NewRepositoriesService(ghClient github.Client, filter RepositoryFilter) RepositoryService {
	return &repositoriesService{gh: ghClient, filter: filter}
}

func (s *repositoriesService) ListAll(ctx context.Context) ([]models.Repository, error) {
	repos, err := s.gh.ListAllRepos(ctx)
	if err != nil {
		return nil, err
	}

	include := toSet(s.filter.Include)
	exclude := toSet(s.filter.Exclude)

	result := make([]models.Repository, 0, len(repos))

	for _, repo := range repos {
		if repo == nil {
			continue
		}
		if len(include) > 0 && !include[repo.GetName()] {
			continue
		}
		if exclude[repo.GetName()] {
			continue
		}
		if repo.GetArchived() && !s.filter.IncludeArchived {
			continue
		}
		if repo.GetIsTemplate() && !s.filter.IncludeTemplates {
			continue
		}

		result = append(result, models.Repository{
			Name:          repo.GetName(),
			FullName:      repo.GetFullName(),
			CloneURL:      repo.GetCloneURL(),
			DefaultBranch: repo.GetDefaultBranch(),
			Private:       repo.GetPrivate(),
			Archived:      repo.GetArchived(),
			Template:      repo.GetIsTemplate(),
			Fork:          repo.GetFork(),
		})
	}

	return result, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
