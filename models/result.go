package models

import "time"

type Stage string

const (
	StagePending          Stage = "pending"
	StageCloned           Stage = "cloned"
	StagePlatformDetected Stage = "platform_detected"
	StageOverrideLoaded   Stage = "override_loaded"
	StageResolved         Stage = "resolved"
	StageMaterialized     Stage = "materialized"
	StageCommitted        Stage = "committed"
	StagePushed           Stage = "pushed"
	StagePROpened         Stage = "pr_opened"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

type RunStatus string

const (
	StatusSucceeded RunStatus = "succeeded"
	StatusPartial   RunStatus = "partially_failed"
	StatusUnchanged RunStatus = "unchanged"
	StatusDisabled  RunStatus = "disabled"
	StatusFailed    RunStatus = "failed"
)

type FileResult string

const (
	FileCreated     FileResult = "created"
	FileOverwritten FileResult = "overwritten"
	FileUnchanged   FileResult = "unchanged"
	FileSkipped     FileResult = "skipped"
	FileBlocked     FileResult = "blocked"
	FileDeleted     FileResult = "deleted"
	FileFailed      FileResult = "failed"
)

type FileOutcome struct {
	Path     string     `json:"path"`
	Result   FileResult `json:"result"`
	Decision *Decision  `json:"decision,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	Error    string     `json:"error,omitempty"`
	Applied  bool       `json:"applied"`
}

// SyncRunResult aggregates everything that happened to one repository in one run.
type SyncRunResult struct {
	RunID          string        `json:"run_id"`
	Repository     Repository    `json:"repository"`
	DryRun         bool          `json:"dry_run"`
	Stage          Stage         `json:"stage"`
	FailedStage    Stage         `json:"failed_stage,omitempty"`
	Cancelled      bool          `json:"cancelled,omitempty"`
	Status         RunStatus     `json:"status"`
	Error          string        `json:"error,omitempty"`
	ErrorKind      string        `json:"error_kind,omitempty"`
	Platform       Platform      `json:"platform"`
	PlatformSource string        `json:"platform_source"`
	Warnings       []string      `json:"warnings,omitempty"`
	Decisions      []Decision    `json:"decisions"`
	Files          []FileOutcome `json:"files"`
	Branch         string        `json:"branch,omitempty"`
	CommitSHA      string        `json:"commit_sha,omitempty"`
	PullRequestURL string        `json:"pull_request_url,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
}

func NewSyncRunResult(runID string, repo Repository, dryRun bool) *SyncRunResult {
	return &SyncRunResult{
		RunID:      runID,
		Repository: repo,
		DryRun:     dryRun,
		Stage:      StagePending,
		StartedAt:  time.Now(),
	}
}

func (r *SyncRunResult) Succeeded() bool {
	return r.Status != StatusFailed
}

func (r *SyncRunResult) Count(result FileResult) int {
	n := 0
	for _, f := range r.Files {
		if f.Result == result {
			n++
		}
	}
	return n
}

func (r *SyncRunResult) Conflicts() []Decision {
	var out []Decision
	for _, d := range r.Decisions {
		if d.IsOverrideConflict {
			out = append(out, d)
		}
	}
	return out
}
