package models

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformGeneric   Platform = "generic"
	PlatformJoomla    Platform = "joomla"
	PlatformDolibarr  Platform = "dolibarr"
	PlatformTerraform Platform = "terraform"
	PlatformStandards Platform = "standards"
)

var Platforms = []Platform{
	PlatformGeneric,
	PlatformJoomla,
	PlatformDolibarr,
	PlatformTerraform,
	PlatformStandards,
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform type %q", s)
}

type PolicyRule struct {
	Pattern        string           `json:"pattern" yaml:"pattern"`
	Level          EnforcementLevel `json:"level" yaml:"level"`
	Reason         string           `json:"reason" yaml:"reason"`
	DefaultInclude bool             `json:"default_include,omitempty" yaml:"default_include,omitempty"`
}

type SyncCandidate struct {
	Source      string     `json:"source" yaml:"source"`
	Destination string     `json:"destination" yaml:"destination"`
	Platforms   []Platform `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

type Action string

const (
	ActionSync  Action = "sync"
	ActionSkip  Action = "skip"
	ActionBlock Action = "block"
)

type Severity string

const (
	SeverityNone    Severity = "none"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Decision is the audit record for one candidate in one repository. It is
// never modified after the resolver produces it.
type Decision struct {
	Candidate          SyncCandidate    `json:"candidate"`
	Action             Action           `json:"action"`
	Level              EnforcementLevel `json:"level,omitempty"`
	Rule               string           `json:"rule,omitempty"`
	Reason             string           `json:"reason"`
	Severity           Severity         `json:"severity"`
	IsOverrideConflict bool             `json:"is_override_conflict"`
}

func (d Decision) Path() string {
	return d.Candidate.Destination
}
