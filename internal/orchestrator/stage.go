package orchestrator

import (
	"errors"
	"fmt"

	"github.com/tracker-tv/standards-sync/internal/override"
	"github.com/tracker-tv/standards-sync/models"
)

const (
	kindConfig    = "config_error"
	kindExternal  = "external_collaborator_error"
	kindFileWrite = "file_write_error"
	kindCancelled = "cancelled"
)

// StageError marks the stage a repository failed in. Err is the cause after
// retries were exhausted.
type StageError struct {
	Stage models.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// errStop ends a pipeline early without failing it: disabled repositories and
// runs with nothing to change.
var errStop = errors.New("stop")

// errNoFileProcessed fails a repository whose every file operation failed.
var errNoFileProcessed = errors.New("no file could be processed")

func errorKind(err error) string {
	var cfgErr *override.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return kindConfig
	case errors.Is(err, errNoFileProcessed):
		return kindFileWrite
	default:
		return kindExternal
	}
}
