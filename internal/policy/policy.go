package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tracker-tv/standards-sync/models"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOverridePath = ".github/standards-sync.yml"

	sharedCatalog = "shared"
	globMeta      = "*?[{"
)

type forcedEntry struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

type document struct {
	OverridePath     string                            `json:"override_path" yaml:"override_path"`
	OverrideTemplate string                            `json:"override_template" yaml:"override_template"`
	ManifestPath     string                            `json:"manifest_path" yaml:"manifest_path"`
	Forced           []forcedEntry                     `json:"forced" yaml:"forced"`
	Rules            []models.PolicyRule               `json:"rules" yaml:"rules"`
	Catalog          map[string][]models.SyncCandidate `json:"catalog" yaml:"catalog"`
}

// OrganizationPolicy is the organization-wide rule set and candidate catalog.
// It is built once at startup and is safe for concurrent readers.
type OrganizationPolicy struct {
	overridePath     string
	overrideTemplate string
	manifestPath     string
	forced           map[string]models.PolicyRule
	rules            []models.PolicyRule
	catalogs         map[models.Platform][]models.SyncCandidate
	managedDirs      []string
}

func FromJSON(data []byte) (*OrganizationPolicy, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return build(doc)
}

func FromYAML(data []byte) (*OrganizationPolicy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return build(doc)
}

// Load reads a policy document, choosing the decoder by file extension.
func Load(file string) (*OrganizationPolicy, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return nil, fmt.Errorf("unsupported policy file extension %q", filepath.Ext(file))
	}
}

func build(doc document) (*OrganizationPolicy, error) {
	var errs []error

	p := &OrganizationPolicy{
		overridePath:     doc.OverridePath,
		overrideTemplate: doc.OverrideTemplate,
		manifestPath:     doc.ManifestPath,
		forced:           make(map[string]models.PolicyRule, len(doc.Forced)),
		catalogs:         make(map[models.Platform][]models.SyncCandidate),
	}
	if p.overridePath == "" {
		p.overridePath = DefaultOverridePath
	}
	if p.manifestPath == "" {
		p.manifestPath = strings.TrimSuffix(p.overridePath, path.Ext(p.overridePath)) + "-manifest.yml"
	}

	for _, f := range doc.Forced {
		if err := checkRelative(f.Path); err != nil {
			errs = append(errs, fmt.Errorf("forced path %q: %w", f.Path, err))
			continue
		}
		if strings.ContainsAny(f.Path, globMeta) {
			errs = append(errs, fmt.Errorf("forced path %q must be an exact path", f.Path))
			continue
		}
		rule := models.PolicyRule{Pattern: f.Path, Level: models.LevelForced, Reason: f.Reason}
		if rule.Reason == "" {
			rule.Reason = "mandated by organization policy"
		}
		p.forced[f.Path] = rule
		p.rules = append(p.rules, rule)
	}

	for i, r := range doc.Rules {
		lvl, err := models.ParseEnforcementLevel(string(r.Level))
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, r.Pattern, err))
			continue
		}
		if lvl == models.LevelForced {
			errs = append(errs, fmt.Errorf("rule %d (%s): FORCED paths belong in the forced list", i, r.Pattern))
			continue
		}
		if r.Pattern == "" || !doublestar.ValidatePattern(r.Pattern) {
			errs = append(errs, fmt.Errorf("rule %d: invalid pattern %q", i, r.Pattern))
			continue
		}
		r.Level = lvl
		p.rules = append(p.rules, r)
	}

	for _, key := range catalogKeys(doc.Catalog) {
		candidates := doc.Catalog[key]
		var platforms []models.Platform
		if key == sharedCatalog {
			platforms = models.Platforms
		} else {
			platform, err := models.ParsePlatform(key)
			if err != nil {
				errs = append(errs, fmt.Errorf("catalog: %w", err))
				continue
			}
			platforms = []models.Platform{platform}
		}
		for _, c := range candidates {
			if c.Source == "" {
				errs = append(errs, fmt.Errorf("catalog %s: candidate %q has no source", key, c.Destination))
				continue
			}
			if err := checkRelative(c.Destination); err != nil {
				errs = append(errs, fmt.Errorf("catalog %s: destination %q: %w", key, c.Destination, err))
				continue
			}
			for _, platform := range platforms {
				p.addCandidate(platform, c)
			}
		}
	}
	if err := checkRelative(p.overridePath); err != nil {
		errs = append(errs, fmt.Errorf("override_path: %w", err))
	}
	if err := checkRelative(p.manifestPath); err != nil {
		errs = append(errs, fmt.Errorf("manifest_path: %w", err))
	} else if p.manifestPath == p.overridePath {
		errs = append(errs, errors.New("manifest_path must differ from override_path"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	p.managedDirs = collectManagedDirs(p.catalogs)
	return p, nil
}

// catalogKeys puts the shared catalog first so platform entries are applied
// on top of it.
func catalogKeys(catalog map[string][]models.SyncCandidate) []string {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		if k != sharedCatalog {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := catalog[sharedCatalog]; ok {
		keys = append([]string{sharedCatalog}, keys...)
	}
	return keys
}

// addCandidate replaces an earlier entry with the same destination.
func (p *OrganizationPolicy) addCandidate(platform models.Platform, c models.SyncCandidate) {
	c.Platforms = nil
	list := p.catalogs[platform]
	for i, existing := range list {
		if existing.Destination == c.Destination {
			list[i] = c
			return
		}
	}
	p.catalogs[platform] = append(list, c)
}

func checkRelative(p string) error {
	if p == "" {
		return errors.New("empty path")
	}
	if strings.HasPrefix(p, "/") || path.Clean(p) != p || p == ".." || strings.HasPrefix(p, "../") {
		return errors.New("must be a clean relative path")
	}
	return nil
}

func collectManagedDirs(catalogs map[models.Platform][]models.SyncCandidate) []string {
	seen := map[string]struct{}{}
	for _, list := range catalogs {
		for _, c := range list {
			dir := path.Dir(c.Destination)
			if dir == "." {
				continue
			}
			seen[dir] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

func (p *OrganizationPolicy) OverridePath() string {
	return p.overridePath
}

// ManifestPath is where the list of files synced into a repository is kept.
func (p *OrganizationPolicy) ManifestPath() string {
	return p.manifestPath
}

func (p *OrganizationPolicy) OverrideTemplate() string {
	return p.overrideTemplate
}

func (p *OrganizationPolicy) IsForced(file string) bool {
	_, ok := p.forced[file]
	return ok
}

// RulesFor returns every rule matching file, strongest first: evaluation
// priority, then longest literal prefix, then longest pattern, then
// declaration order.
func (p *OrganizationPolicy) RulesFor(file string) []models.PolicyRule {
	var matched []models.PolicyRule
	for _, r := range p.rules {
		if ok, _ := doublestar.Match(r.Pattern, file); ok {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Level.Priority() != b.Level.Priority() {
			return a.Level.Priority() > b.Level.Priority()
		}
		if la, lb := literalPrefix(a.Pattern), literalPrefix(b.Pattern); la != lb {
			return la > lb
		}
		return len(a.Pattern) > len(b.Pattern)
	})
	return matched
}

func (p *OrganizationPolicy) Match(file string) (models.PolicyRule, bool) {
	rules := p.RulesFor(file)
	if len(rules) == 0 {
		return models.PolicyRule{}, false
	}
	return rules[0], true
}

// OrganizationDefaultLevel falls back to OPTIONAL so that an unmatched path
// is never treated as mandatory or prohibited.
func (p *OrganizationPolicy) OrganizationDefaultLevel(file string) models.EnforcementLevel {
	if r, ok := p.Match(file); ok {
		return r.Level
	}
	return models.LevelOptional
}

func (p *OrganizationPolicy) Catalog(platform models.Platform) []models.SyncCandidate {
	list := p.catalogs[platform]
	out := make([]models.SyncCandidate, len(list))
	for i, c := range list {
		c.Platforms = []models.Platform{platform}
		out[i] = c
	}
	return out
}

func (p *OrganizationPolicy) ManagedDirs() []string {
	return append([]string(nil), p.managedDirs...)
}

func literalPrefix(pattern string) int {
	if i := strings.IndexAny(pattern, globMeta); i >= 0 {
		return i
	}
	return len(pattern)
}
