package main

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracker-tv/standards-sync/internal/policy"
	"github.com/tracker-tv/standards-sync/internal/resolver"
	"github.com/tracker-tv/standards-sync/models"
)

func loadEmbedded(t *testing.T) (*policy.OrganizationPolicy, fs.FS) {
	t.Helper()
	pol, err := policy.FromJSON(organizationPolicy)
	require.NoError(t, err)
	templates, err := fs.Sub(embeddedTemplates, "templates")
	require.NoError(t, err)
	return pol, templates
}

func TestEmbeddedPolicyLevels(t *testing.T) {
	pol, _ := loadEmbedded(t)
	r := resolver.New(pol)

	type want struct {
		level  models.EnforcementLevel
		action models.Action
	}
	tests := map[models.Platform]map[string]want{
		models.PlatformGeneric: {
			"LICENSE":                                    {models.LevelRequired, models.ActionSync},
			"SECURITY.md":                                {models.LevelRequired, models.ActionSync},
			".editorconfig":                              {models.LevelSuggested, models.ActionSync},
			".github/dependabot.yml":                     {models.LevelSuggested, models.ActionSync},
			".github/workflows/ci.yml":                   {models.LevelSuggested, models.ActionSync},
			".github/workflows/release.yml":              {models.LevelOptional, models.ActionSync},
			".github/workflows/standards-compliance.yml": {models.LevelForced, models.ActionSync},
		},
		models.PlatformJoomla: {
			".github/workflows/ci.yml":                   {models.LevelSuggested, models.ActionSync},
			".github/workflows/deploy-update-server.yml": {models.LevelOptional, models.ActionSkip},
			".github/workflows/release.yml":              {models.LevelOptional, models.ActionSync},
		},
		models.PlatformDolibarr: {
			".github/workflows/ci.yml": {models.LevelSuggested, models.ActionSync},
		},
		models.PlatformTerraform: {
			".github/workflows/ci.yml": {models.LevelSuggested, models.ActionSync},
			".tflint.hcl":              {models.LevelSuggested, models.ActionSync},
		},
		models.PlatformStandards: {
			".github/workflows/ci.yml": {models.LevelSuggested, models.ActionSync},
		},
	}

	for platform, paths := range tests {
		t.Run(string(platform), func(t *testing.T) {
			decisions := map[string]models.Decision{}
			for _, d := range r.ResolveAll(models.DefaultOverride("org/repo"), pol.Catalog(platform)) {
				decisions[d.Path()] = d
			}
			for path, w := range paths {
				d, ok := decisions[path]
				require.True(t, ok, "%s is not in the %s catalog", path, platform)
				assert.Equal(t, w.level, d.Level, path)
				assert.Equal(t, w.action, d.Action, path)
			}
		})
	}
}

func TestEmbeddedCatalogIsFullyGoverned(t *testing.T) {
	pol, templates := loadEmbedded(t)
	r := resolver.New(pol)

	for _, platform := range models.Platforms {
		for _, c := range pol.Catalog(platform) {
			d := r.Resolve(models.DefaultOverride("org/repo"), c)
			assert.NotEmpty(t, d.Level, "%s/%s has no organization rule", platform, c.Destination)

			_, err := fs.Stat(templates, c.Source)
			assert.NoError(t, err, "%s/%s", platform, c.Source)
		}
	}

	_, err := fs.Stat(templates, pol.OverrideTemplate())
	assert.NoError(t, err)
}

func TestEmbeddedOptionalWorkflowsFollowOverride(t *testing.T) {
	pol, _ := loadEmbedded(t)
	r := resolver.New(pol)
	ov := models.DefaultOverride("org/repo")
	ov.OptionalIncludes = map[string]bool{
		".github/workflows/deploy-update-server.yml": true,
		".github/workflows/release.yml":              false,
	}

	decisions := map[string]models.Action{}
	for _, d := range r.ResolveAll(ov, pol.Catalog(models.PlatformJoomla)) {
		decisions[d.Path()] = d.Action
	}

	assert.Equal(t, models.ActionSync, decisions[".github/workflows/deploy-update-server.yml"])
	assert.Equal(t, models.ActionSkip, decisions[".github/workflows/release.yml"])
}
