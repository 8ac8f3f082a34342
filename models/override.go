package models

type CleanupMode string

const (
	CleanupNone         CleanupMode = "none"
	CleanupConservative CleanupMode = "conservative"
	CleanupAggressive   CleanupMode = "aggressive"
)

func (m CleanupMode) Valid() bool {
	switch m {
	case CleanupNone, CleanupConservative, CleanupAggressive:
		return true
	}
	return false
}

type OverrideEntry struct {
	Path   string `yaml:"path" json:"path"`
	Reason string `yaml:"reason" json:"reason"`
}

type RepositoryOverride struct {
	RepositoryID     string          `json:"repository_id"`
	PlatformType     Platform        `json:"platform_type,omitempty"`
	CleanupMode      CleanupMode     `json:"cleanup_mode"`
	ExcludeRules     []OverrideEntry `json:"exclude_rules,omitempty"`
	ProtectRules     []OverrideEntry `json:"protect_rules,omitempty"`
	ObsoleteRules    []OverrideEntry `json:"obsolete_rules,omitempty"`
	OptionalIncludes map[string]bool `json:"optional_includes,omitempty"`
	SyncEnabled      bool            `json:"sync_enabled"`
}

// DefaultOverride is what applies when a repository carries no override file.
func DefaultOverride(repositoryID string) *RepositoryOverride {
	return &RepositoryOverride{
		RepositoryID: repositoryID,
		CleanupMode:  CleanupNone,
		SyncEnabled:  true,
	}
}
