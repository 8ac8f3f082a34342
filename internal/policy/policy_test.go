package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tracker-tv/standards-sync/models"
)

const testPolicy = `{
	"override_template": "templates/standards-sync.yml",
	"forced": [
		{"path": ".github/workflows/standards-compliance.yml", "reason": "compliance gate"}
	],
	"rules": [
		{"pattern": "**/.env", "level": "NOT_ALLOWED", "reason": "secrets"},
		{"pattern": "LICENSE", "level": "REQUIRED", "reason": "license"},
		{"pattern": ".github/workflows/*.yml", "level": "SUGGESTED", "reason": "common workflows"},
		{"pattern": ".github/workflows/deploy-*.yml", "level": "OPTIONAL", "reason": "deploys"},
		{"pattern": ".github/workflows/deploy-prod.yml", "level": "optional", "reason": "prod deploy", "default_include": true},
		{"pattern": "Makefile", "level": "not-suggested", "reason": "use task runner"}
	],
	"catalog": {
		"shared": [
			{"source": "common/.editorconfig", "destination": ".editorconfig"},
			{"source": "common/ci.yml", "destination": ".github/workflows/ci.yml"}
		],
		"joomla": [
			{"source": "joomla/ci.yml", "destination": ".github/workflows/ci.yml"},
			{"source": "joomla/build.xml", "destination": "build/build.xml"}
		]
	}
}`

func mustPolicy(t *testing.T) *OrganizationPolicy {
	t.Helper()
	p, err := FromJSON([]byte(testPolicy))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestFromJSON(t *testing.T) {
	p := mustPolicy(t)

	if p.OverridePath() != DefaultOverridePath {
		t.Errorf("OverridePath: expected %q, got %q", DefaultOverridePath, p.OverridePath())
	}
	if p.ManifestPath() != ".github/standards-sync-manifest.yml" {
		t.Errorf("ManifestPath: got %q", p.ManifestPath())
	}
	if p.OverrideTemplate() != "templates/standards-sync.yml" {
		t.Errorf("OverrideTemplate: got %q", p.OverrideTemplate())
	}
	if !p.IsForced(".github/workflows/standards-compliance.yml") {
		t.Error("expected compliance workflow to be forced")
	}
	if p.IsForced("LICENSE") {
		t.Error("LICENSE must not be forced")
	}
}

func TestMatch(t *testing.T) {
	p := mustPolicy(t)

	tests := []struct {
		name      string
		path      string
		wantLevel models.EnforcementLevel
		wantRule  string
		wantMatch bool
	}{
		{
			name:      "not allowed at root",
			path:      ".env",
			wantLevel: models.LevelNotAllowed,
			wantRule:  "**/.env",
			wantMatch: true,
		},
		{
			name:      "not allowed nested",
			path:      "config/.env",
			wantLevel: models.LevelNotAllowed,
			wantRule:  "**/.env",
			wantMatch: true,
		},
		{
			name:      "forced exact path",
			path:      ".github/workflows/standards-compliance.yml",
			wantLevel: models.LevelForced,
			wantRule:  ".github/workflows/standards-compliance.yml",
			wantMatch: true,
		},
		{
			name:      "suggested beats optional by priority",
			path:      ".github/workflows/deploy-staging.yml",
			wantLevel: models.LevelSuggested,
			wantRule:  ".github/workflows/*.yml",
			wantMatch: true,
		},
		{
			name:      "lower-case level names are accepted",
			path:      "Makefile",
			wantLevel: models.LevelNotSuggested,
			wantRule:  "Makefile",
			wantMatch: true,
		},
		{
			name:      "no rule",
			path:      "README.md",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := p.Match(tt.path)
			if ok != tt.wantMatch {
				t.Fatalf("match: expected %v, got %v", tt.wantMatch, ok)
			}
			if !ok {
				return
			}
			if rule.Level != tt.wantLevel {
				t.Errorf("Level: expected %q, got %q", tt.wantLevel, rule.Level)
			}
			if rule.Pattern != tt.wantRule {
				t.Errorf("Pattern: expected %q, got %q", tt.wantRule, rule.Pattern)
			}
		})
	}
}

func TestRulesForOrdersBySpecificityWithinLevel(t *testing.T) {
	p := mustPolicy(t)

	rules := p.RulesFor(".github/workflows/deploy-prod.yml")
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	want := []string{
		".github/workflows/*.yml",
		".github/workflows/deploy-prod.yml",
		".github/workflows/deploy-*.yml",
	}
	for i, w := range want {
		if rules[i].Pattern != w {
			t.Errorf("rule %d: expected %q, got %q", i, w, rules[i].Pattern)
		}
	}
	if !rules[1].DefaultInclude {
		t.Error("expected default_include on the exact prod deploy rule")
	}
}

func TestOrganizationDefaultLevel(t *testing.T) {
	p := mustPolicy(t)

	if got := p.OrganizationDefaultLevel("docs/unmatched.md"); got != models.LevelOptional {
		t.Errorf("expected OPTIONAL for unmatched path, got %q", got)
	}
	if got := p.OrganizationDefaultLevel("LICENSE"); got != models.LevelRequired {
		t.Errorf("expected REQUIRED for LICENSE, got %q", got)
	}
}

func TestCatalog(t *testing.T) {
	p := mustPolicy(t)

	generic := p.Catalog(models.PlatformGeneric)
	if len(generic) != 2 {
		t.Fatalf("generic: expected 2 candidates, got %d", len(generic))
	}

	joomla := p.Catalog(models.PlatformJoomla)
	if len(joomla) != 3 {
		t.Fatalf("joomla: expected 3 candidates, got %d", len(joomla))
	}
	for _, c := range joomla {
		if c.Destination == ".github/workflows/ci.yml" && c.Source != "joomla/ci.yml" {
			t.Errorf("expected platform entry to replace shared ci.yml, got source %q", c.Source)
		}
		if len(c.Platforms) != 1 || c.Platforms[0] != models.PlatformJoomla {
			t.Errorf("expected platform scope joomla, got %v", c.Platforms)
		}
	}

	joomla[0].Source = "mutated"
	if p.Catalog(models.PlatformJoomla)[0].Source == "mutated" {
		t.Error("Catalog must return a copy")
	}
}

func TestManagedDirs(t *testing.T) {
	p := mustPolicy(t)

	got := p.ManagedDirs()
	want := []string{".github/workflows", "build"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFromJSONRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "forced in rules",
			data:    `{"rules": [{"pattern": "LICENSE", "level": "FORCED"}]}`,
			wantErr: "forced list",
		},
		{
			name:    "unknown level",
			data:    `{"rules": [{"pattern": "LICENSE", "level": "MANDATORY"}]}`,
			wantErr: "unknown enforcement level",
		},
		{
			name:    "bad pattern",
			data:    `{"rules": [{"pattern": "[abc", "level": "OPTIONAL"}]}`,
			wantErr: "invalid pattern",
		},
		{
			name:    "glob in forced",
			data:    `{"forced": [{"path": "*.yml"}]}`,
			wantErr: "exact path",
		},
		{
			name:    "unknown platform",
			data:    `{"catalog": {"wordpress": [{"source": "a", "destination": "b"}]}}`,
			wantErr: "unknown platform",
		},
		{
			name:    "escaping destination",
			data:    `{"catalog": {"shared": [{"source": "a", "destination": "../b"}]}}`,
			wantErr: "clean relative path",
		},
		{
			name:    "manifest on override file",
			data:    `{"override_path": ".sync.yml", "manifest_path": ".sync.yml"}`,
			wantErr: "must differ",
		},
		{
			name:    "malformed json",
			data:    `{"rules": [`,
			wantErr: "unexpected end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "policy.yaml")
	data := `
override_path: .standards.yml
rules:
  - pattern: "**/*.pem"
    level: NOT_ALLOWED
    reason: private keys
catalog:
  terraform:
    - source: terraform/fmt.yml
      destination: .github/workflows/fmt.yml
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.OverridePath() != ".standards.yml" {
		t.Errorf("OverridePath: got %q", p.OverridePath())
	}
	if p.ManifestPath() != ".standards-manifest.yml" {
		t.Errorf("ManifestPath: got %q", p.ManifestPath())
	}
	if got := p.OrganizationDefaultLevel("certs/server.pem"); got != models.LevelNotAllowed {
		t.Errorf("expected NOT_ALLOWED, got %q", got)
	}
	if len(p.Catalog(models.PlatformTerraform)) != 1 {
		t.Error("expected one terraform candidate")
	}
	if len(p.Catalog(models.PlatformGeneric)) != 0 {
		t.Error("expected no generic candidates")
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	file := filepath.Join(t.TempDir(), "policy.toml")
	if err := os.WriteFile(file, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(file); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
