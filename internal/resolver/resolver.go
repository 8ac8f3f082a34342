package resolver

import (
	"fmt"

	"github.com/tracker-tv/standards-sync/internal/override"
	"github.com/tracker-tv/standards-sync/internal/policy"
	"github.com/tracker-tv/standards-sync/models"
)

type handler func(ov *models.RepositoryOverride, c models.SyncCandidate, rule models.PolicyRule) models.Decision

// Resolver turns a candidate into exactly one Decision. It holds no mutable
// state and may be shared across workers.
type Resolver struct {
	policy   *policy.OrganizationPolicy
	handlers map[models.EnforcementLevel]handler
}

func New(pol *policy.OrganizationPolicy) *Resolver {
	return &Resolver{
		policy: pol,
		handlers: map[models.EnforcementLevel]handler{
			models.LevelNotAllowed:   notAllowed,
			models.LevelForced:       forced,
			models.LevelRequired:     required,
			models.LevelSuggested:    suggested,
			models.LevelNotSuggested: notSuggested,
			models.LevelOptional:     optional,
		},
	}
}

func (r *Resolver) Policy() *policy.OrganizationPolicy {
	return r.policy
}

// Resolve applies the strongest matching organization rule. Overrides are only
// consulted after the rule is chosen, so NOT_ALLOWED and FORCED cannot be
// changed by repository content.
func (r *Resolver) Resolve(ov *models.RepositoryOverride, c models.SyncCandidate) models.Decision {
	if ov == nil {
		ov = models.DefaultOverride("")
	}
	rule, ok := r.policy.Match(c.Destination)
	if !ok {
		return models.Decision{
			Candidate: c,
			Action:    models.ActionSkip,
			Reason:    "no organization rule matches this path",
			Severity:  models.SeverityNone,
		}
	}
	return r.handlers[rule.Level](ov, c, rule)
}

func (r *Resolver) ResolveAll(ov *models.RepositoryOverride, candidates []models.SyncCandidate) []models.Decision {
	decisions := make([]models.Decision, 0, len(candidates))
	for _, c := range candidates {
		decisions = append(decisions, r.Resolve(ov, c))
	}
	return decisions
}

func decide(c models.SyncCandidate, rule models.PolicyRule, action models.Action, severity models.Severity, reason string) models.Decision {
	return models.Decision{
		Candidate: c,
		Action:    action,
		Level:     rule.Level,
		Rule:      rule.Pattern,
		Reason:    reason,
		Severity:  severity,
	}
}

func notAllowed(_ *models.RepositoryOverride, c models.SyncCandidate, rule models.PolicyRule) models.Decision {
	return decide(c, rule, models.ActionBlock, models.SeverityError, "prohibited by organization policy: "+rule.Reason)
}

func forced(ov *models.RepositoryOverride, c models.SyncCandidate, rule models.PolicyRule) models.Decision {
	d := decide(c, rule, models.ActionSync, models.SeverityNone, "forced by organization policy: "+rule.Reason)
	if e, ok := override.Find(ov.ProtectRules, c.Destination); ok {
		d.IsOverrideConflict = true
		d.Severity = models.SeverityWarning
		d.Reason = fmt.Sprintf("%s; protected_files entry ignored (%s)", d.Reason, e.Reason)
	}
	return d
}

func required(ov *models.RepositoryOverride, c models.SyncCandidate, rule models.PolicyRule) models.Decision {
	d := decide(c, rule, models.ActionSync, models.SeverityNone, "required by organization policy: "+rule.Reason)
	if e, ok := override.Find(ov.ExcludeRules, c.Destination); ok {
		d.IsOverrideConflict = true
		d.Severity = models.SeverityWarning
		d.Reason = fmt.Sprintf("%s; exclude_files entry overruled (%s)", d.Reason, e.Reason)
	}
	return d
}

func suggested(ov *models.RepositoryOverride, c models.SyncCandidate, rule models.PolicyRule) models.Decision {
	if e, ok := override.Find(ov.ExcludeRules, c.Destination); ok {
		return decide(c, rule, models.ActionSkip, models.SeverityWarning, e.Reason)
	}
	return decide(c, rule, models.ActionSync, models.SeverityNone, "suggested by organization policy: "+rule.Reason)
}

func notSuggested(ov *models.RepositoryOverride, c models.SyncCandidate, rule models.PolicyRule) models.Decision {
	if e, ok := override.Find(ov.ProtectRules, c.Destination); ok {
		d := decide(c, rule, models.ActionSync, models.SeverityWarning, fmt.Sprintf("discouraged by organization policy (%s) but protected: %s", rule.Reason, e.Reason))
		d.IsOverrideConflict = true
		return d
	}
	return decide(c, rule, models.ActionSkip, models.SeverityWarning, "discouraged by organization policy: "+rule.Reason)
}

func optional(ov *models.RepositoryOverride, c models.SyncCandidate, rule models.PolicyRule) models.Decision {
	include, set := ov.OptionalIncludes[c.Destination]
	if !set {
		include = rule.DefaultInclude
	}
	if include {
		return decide(c, rule, models.ActionSync, models.SeverityNone, "optional file included")
	}
	return decide(c, rule, models.ActionSkip, models.SeverityNone, "optional file not included")
}
