package models

import (
	"fmt"
	"strings"
)

type EnforcementLevel string

const (
	LevelOptional     EnforcementLevel = "OPTIONAL"
	LevelSuggested    EnforcementLevel = "SUGGESTED"
	LevelRequired     EnforcementLevel = "REQUIRED"
	LevelForced       EnforcementLevel = "FORCED"
	LevelNotSuggested EnforcementLevel = "NOT_SUGGESTED"
	LevelNotAllowed   EnforcementLevel = "NOT_ALLOWED"
)

// EvaluationOrder lists every level from highest to lowest evaluation priority.
var EvaluationOrder = []EnforcementLevel{
	LevelNotAllowed,
	LevelForced,
	LevelRequired,
	LevelSuggested,
	LevelNotSuggested,
	LevelOptional,
}

// Priority is the evaluation ordinal. Higher wins. It has nothing to do with
// the "Level N" label used in documentation, see DisplayNumber.
func (l EnforcementLevel) Priority() int {
	for i, lvl := range EvaluationOrder {
		if lvl == l {
			return len(EvaluationOrder) - i
		}
	}
	return 0
}

// DisplayNumber is the "Level N" label from the standards documentation.
// Never sort or branch on it.
func (l EnforcementLevel) DisplayNumber() int {
	switch l {
	case LevelOptional:
		return 1
	case LevelSuggested:
		return 2
	case LevelRequired:
		return 3
	case LevelForced:
		return 4
	case LevelNotSuggested:
		return 5
	case LevelNotAllowed:
		return 6
	default:
		return 0
	}
}

func (l EnforcementLevel) Valid() bool {
	return l.Priority() > 0
}

func (l EnforcementLevel) String() string {
	return string(l)
}

func ParseEnforcementLevel(s string) (EnforcementLevel, error) {
	lvl := EnforcementLevel(strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))))
	if !lvl.Valid() {
		return "", fmt.Errorf("unknown enforcement level %q", s)
	}
	return lvl, nil
}
