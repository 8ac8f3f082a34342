package override

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tracker-tv/standards-sync/internal/policy"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
	"gopkg.in/yaml.v3"
)

// ConfigError reports a malformed or self-contradicting override file.
type ConfigError struct {
	Repository string
	Path       string
	Problems   []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid override %s in %s: %s", e.Path, e.Repository, strings.Join(e.Problems, "; "))
}

type document struct {
	Sync struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"sync"`
	Platform         string                 `yaml:"platform"`
	CleanupMode      string                 `yaml:"cleanup_mode"`
	ExcludeFiles     []models.OverrideEntry `yaml:"exclude_files"`
	ProtectedFiles   []models.OverrideEntry `yaml:"protected_files"`
	ObsoleteFiles    []models.OverrideEntry `yaml:"obsolete_files"`
	OptionalIncludes map[string]bool        `yaml:"optional_includes"`
}

// Load reads the override file from tree. A missing file yields the default
// override with found=false. Read failures other than absence are returned as
// is; anything wrong with the content is a *ConfigError.
func Load(ctx context.Context, tree workspace.Tree, repo, file string) (*models.RepositoryOverride, bool, error) {
	content, err := tree.ReadFile(ctx, file)
	if errors.Is(err, fs.ErrNotExist) {
		return models.DefaultOverride(repo), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read override %s: %w", file, err)
	}
	ov, err := parse(repo, file, content)
	return ov, true, err
}

func Parse(repo string, content []byte) (*models.RepositoryOverride, error) {
	return parse(repo, policy.DefaultOverridePath, content)
}

func parse(repo, file string, content []byte) (*models.RepositoryOverride, error) {
	cfgErr := &ConfigError{Repository: repo, Path: file}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		cfgErr.Problems = append(cfgErr.Problems, fmt.Sprintf("malformed yaml: %v", err))
		return nil, cfgErr
	}

	ov := models.DefaultOverride(repo)
	if doc.Sync.Enabled != nil {
		ov.SyncEnabled = *doc.Sync.Enabled
	}

	if doc.Platform != "" {
		platform, err := models.ParsePlatform(doc.Platform)
		if err != nil {
			cfgErr.Problems = append(cfgErr.Problems, err.Error())
		}
		ov.PlatformType = platform
	}

	if doc.CleanupMode != "" {
		mode := models.CleanupMode(strings.ToLower(doc.CleanupMode))
		if !mode.Valid() {
			cfgErr.Problems = append(cfgErr.Problems, fmt.Sprintf("cleanup_mode %q must be one of none, conservative, aggressive", doc.CleanupMode))
		}
		ov.CleanupMode = mode
	}

	lists := []struct {
		name    string
		entries []models.OverrideEntry
	}{
		{"exclude_files", doc.ExcludeFiles},
		{"protected_files", doc.ProtectedFiles},
		{"obsolete_files", doc.ObsoleteFiles},
	}
	type listed struct {
		list string
		path string
	}
	var accepted []listed
	for _, l := range lists {
		for i, e := range l.entries {
			if problem := checkEntry(e); problem != "" {
				cfgErr.Problems = append(cfgErr.Problems, fmt.Sprintf("%s[%d]: %s", l.name, i, problem))
				continue
			}
			clash := ""
			for _, prev := range accepted {
				switch {
				case prev.list == l.name && prev.path == e.Path:
					clash = fmt.Sprintf("%s: duplicate path %q", l.name, e.Path)
				case prev.list == l.name:
				case prev.path == e.Path:
					clash = fmt.Sprintf("path %q appears in both %s and %s", e.Path, prev.list, l.name)
				case overlaps(prev.path, e.Path):
					clash = fmt.Sprintf("%s entry %q overlaps %s entry %q", l.name, e.Path, prev.list, prev.path)
				}
				if clash != "" {
					break
				}
			}
			if clash != "" {
				cfgErr.Problems = append(cfgErr.Problems, clash)
				continue
			}
			accepted = append(accepted, listed{list: l.name, path: e.Path})
		}
	}
	ov.ExcludeRules = doc.ExcludeFiles
	ov.ProtectRules = doc.ProtectedFiles
	ov.ObsoleteRules = doc.ObsoleteFiles

	for p, include := range doc.OptionalIncludes {
		if !isCleanRelative(p) {
			cfgErr.Problems = append(cfgErr.Problems, fmt.Sprintf("optional_includes: %q must be a clean relative path", p))
			continue
		}
		if ov.OptionalIncludes == nil {
			ov.OptionalIncludes = make(map[string]bool, len(doc.OptionalIncludes))
		}
		ov.OptionalIncludes[p] = include
	}

	if len(cfgErr.Problems) > 0 {
		return nil, cfgErr
	}
	return ov, nil
}

func checkEntry(e models.OverrideEntry) string {
	switch {
	case e.Path == "":
		return "path is required"
	case !isCleanRelative(e.Path):
		return fmt.Sprintf("%q must be a clean relative path", e.Path)
	case !doublestar.ValidatePattern(e.Path):
		return fmt.Sprintf("invalid pattern %q", e.Path)
	case strings.TrimSpace(e.Reason) == "":
		return fmt.Sprintf("%q has no reason", e.Path)
	}
	return ""
}

// overlaps reports whether two entries can select the same file: either
// pattern matches the other taken literally.
func overlaps(a, b string) bool {
	if ok, _ := doublestar.Match(a, b); ok {
		return true
	}
	ok, _ := doublestar.Match(b, a)
	return ok
}

func isCleanRelative(p string) bool {
	return p != "" && !strings.HasPrefix(p, "/") && path.Clean(p) == p && p != ".." && !strings.HasPrefix(p, "../")
}

// Find returns the first entry whose path equals file or matches it as a glob.
func Find(entries []models.OverrideEntry, file string) (models.OverrideEntry, bool) {
	for _, e := range entries {
		if e.Path == file {
			return e, true
		}
		if ok, _ := doublestar.Match(e.Path, file); ok {
			return e, true
		}
	}
	return models.OverrideEntry{}, false
}

// Lint reports exclude or protect entries that can never take effect because
// the organization forces or prohibits the path.
func Lint(ov *models.RepositoryOverride, pol *policy.OrganizationPolicy) []string {
	var warnings []string
	check := func(list string, entries []models.OverrideEntry) {
		for _, e := range entries {
			rule, ok := pol.Match(e.Path)
			if !ok {
				continue
			}
			if rule.Level == models.LevelForced || rule.Level == models.LevelNotAllowed {
				warnings = append(warnings, fmt.Sprintf("%s entry %q is ignored: path is %s (%s)", list, e.Path, rule.Level, rule.Reason))
			}
		}
	}
	check("exclude_files", ov.ExcludeRules)
	check("protected_files", ov.ProtectRules)
	return warnings
}
