// Package report aggregates per-repository results of one run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/tracker-tv/standards-sync/models"
)

type Totals struct {
	Repositories int `json:"repositories"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	Unchanged    int `json:"unchanged"`
	Disabled     int `json:"disabled"`
	Partial      int `json:"partially_failed"`

	Created     int `json:"files_created"`
	Overwritten int `json:"files_overwritten"`
	Skipped     int `json:"files_skipped"`
	Blocked     int `json:"files_blocked"`
	Deleted     int `json:"files_deleted"`
	FileErrors  int `json:"files_failed"`
}

// Conflict is an override that organization policy overruled, tagged with
// the repository it came from.
type Conflict struct {
	Repository string `json:"repository"`
	models.Decision
}

type Failure struct {
	Repository string       `json:"repository"`
	Stage      models.Stage `json:"stage"`
	Kind       string       `json:"kind"`
	Error      string       `json:"error"`
}

type Summary struct {
	RunID      string                  `json:"run_id"`
	DryRun     bool                    `json:"dry_run"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Totals     Totals                  `json:"totals"`
	Conflicts  []Conflict              `json:"override_conflicts"`
	Failures   []Failure               `json:"failures"`
	Results    []*models.SyncRunResult `json:"repositories"`
}

func Build(runID string, dryRun bool, results []*models.SyncRunResult) Summary {
	s := Summary{
		RunID:     runID,
		DryRun:    dryRun,
		Conflicts: []Conflict{},
		Failures:  []Failure{},
		Results:   results,
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		if s.StartedAt.IsZero() || r.StartedAt.Before(s.StartedAt) {
			s.StartedAt = r.StartedAt
		}
		if r.FinishedAt.After(s.FinishedAt) {
			s.FinishedAt = r.FinishedAt
		}

		t := &s.Totals
		t.Repositories++
		switch r.Status {
		case models.StatusFailed:
			t.Failed++
			s.Failures = append(s.Failures, Failure{
				Repository: r.Repository.FullName,
				Stage:      r.FailedStage,
				Kind:       r.ErrorKind,
				Error:      r.Error,
			})
		case models.StatusUnchanged:
			t.Unchanged++
		case models.StatusDisabled:
			t.Disabled++
		case models.StatusPartial:
			t.Partial++
		}
		if r.Succeeded() {
			t.Succeeded++
		}

		t.Created += r.Count(models.FileCreated)
		t.Overwritten += r.Count(models.FileOverwritten)
		t.Skipped += r.Count(models.FileSkipped)
		t.Blocked += r.Count(models.FileBlocked)
		t.Deleted += r.Count(models.FileDeleted)
		t.FileErrors += r.Count(models.FileFailed)

		for _, d := range r.Conflicts() {
			s.Conflicts = append(s.Conflicts, Conflict{Repository: r.Repository.FullName, Decision: d})
		}
	}

	sort.SliceStable(s.Conflicts, func(i, j int) bool {
		if s.Conflicts[i].Repository != s.Conflicts[j].Repository {
			return s.Conflicts[i].Repository < s.Conflicts[j].Repository
		}
		return s.Conflicts[i].Path() < s.Conflicts[j].Path()
	})
	return s
}

// HasFailures is what decides a non-zero exit.
func (s Summary) HasFailures() bool {
	return s.Totals.Failed > 0
}

// FailedRepositories lists the full names of the repositories that failed.
func FailedRepositories(results []*models.SyncRunResult) []string {
	var names []string
	for _, r := range results {
		if r != nil && r.Status == models.StatusFailed {
			names = append(names, r.Repository.FullName)
		}
	}
	sort.Strings(names)
	return names
}

func Encode(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteJSON writes the summary to path, creating parent directories.
func WriteJSON(path string, s Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Encode(f, s); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// Render prints the per-repository table, the overruled overrides and every
// failure.
func Render(w io.Writer, s Summary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	if s.DryRun {
		tw.SetTitle("Standards sync %s (dry run)", s.RunID)
	} else {
		tw.SetTitle("Standards sync %s", s.RunID)
	}
	tw.AppendHeader(table.Row{"Repository", "Platform", "Status", "Created", "Overwritten", "Skipped", "Blocked", "Deleted", "Failed", "Pull request"})
	for _, r := range s.Results {
		if r == nil {
			continue
		}
		status := string(r.Status)
		if r.Status == models.StatusFailed {
			status = fmt.Sprintf("failed (%s)", r.FailedStage)
		}
		tw.AppendRow(table.Row{
			r.Repository.FullName,
			r.Platform,
			status,
			r.Count(models.FileCreated),
			r.Count(models.FileOverwritten),
			r.Count(models.FileSkipped),
			r.Count(models.FileBlocked),
			r.Count(models.FileDeleted),
			r.Count(models.FileFailed),
			r.PullRequestURL,
		})
	}
	t := s.Totals
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d repositories", t.Repositories),
		"",
		fmt.Sprintf("%d ok / %d failed", t.Succeeded, t.Failed),
		t.Created, t.Overwritten, t.Skipped, t.Blocked, t.Deleted, t.FileErrors,
		"",
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	tw.Render()

	if len(s.Conflicts) > 0 {
		ct := table.NewWriter()
		ct.SetOutputMirror(w)
		ct.SetStyle(table.StyleLight)
		ct.SetTitle("Overruled repository overrides")
		ct.AppendHeader(table.Row{"Repository", "Path", "Level", "Action", "Reason"})
		for _, c := range s.Conflicts {
			ct.AppendRow(table.Row{c.Repository, c.Path(), c.Level, c.Action, c.Reason})
		}
		ct.Render()
	}

	if len(s.Failures) > 0 {
		ft := table.NewWriter()
		ft.SetOutputMirror(w)
		ft.SetStyle(table.StyleLight)
		ft.SetTitle("Failures")
		ft.AppendHeader(table.Row{"Repository", "Stage", "Kind", "Error"})
		for _, f := range s.Failures {
			ft.AppendRow(table.Row{f.Repository, f.Stage, f.Kind, f.Error})
		}
		ft.Render()
	}
}
