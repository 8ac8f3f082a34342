package materializer

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"sort"

	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
	"gopkg.in/yaml.v3"
)

const manifestHeader = "# Files synced from the organization standards. Maintained by standards-sync.\n"

type manifest struct {
	SyncedFiles []string `yaml:"synced_files"`
}

// readManifest returns the paths earlier runs synced. A missing or unreadable
// manifest yields an empty set, so nothing is treated as previously synced.
func readManifest(ctx context.Context, tree workspace.Tree, name string) (map[string]struct{}, []byte) {
	synced := map[string]struct{}{}
	content, err := tree.ReadFile(ctx, name)
	if err != nil {
		return synced, nil
	}
	var m manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return synced, content
	}
	for _, f := range m.SyncedFiles {
		if clean, err := workspace.Clean(f); err == nil {
			synced[clean] = struct{}{}
		}
	}
	return synced, content
}

// planManifest records every path this run syncs plus earlier entries that
// still exist and are not being deleted. It returns nil when the manifest is
// already current.
func planManifest(ctx context.Context, tree workspace.Tree, name string, ops []Operation, previous map[string]struct{}, current []byte) (*Operation, error) {
	entries := map[string]struct{}{}
	dropped := map[string]struct{}{}
	for _, op := range ops {
		switch {
		case op.Result == models.FileDeleted:
			dropped[op.Path] = struct{}{}
		case op.Decision == nil || op.Decision.Action != models.ActionSync:
		case op.Result == models.FileCreated, op.Result == models.FileOverwritten, op.Result == models.FileUnchanged:
			entries[op.Path] = struct{}{}
		}
	}

	if len(previous) > 0 {
		files, err := tree.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, ok := previous[f]; !ok {
				continue
			}
			if _, gone := dropped[f]; !gone {
				entries[f] = struct{}{}
			}
		}
	}
	delete(entries, name)

	m := manifest{SyncedFiles: make([]string, 0, len(entries))}
	for f := range entries {
		m.SyncedFiles = append(m.SyncedFiles, f)
	}
	sort.Strings(m.SyncedFiles)

	var buf bytes.Buffer
	buf.WriteString(manifestHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	if bytes.Equal(buf.Bytes(), current) {
		return nil, nil
	}
	op := &Operation{
		Path:    name,
		Result:  models.FileOverwritten,
		Reason:  "record of synced files",
		Content: buf.Bytes(),
		Mode:    0o644,
	}
	if current == nil {
		if _, err := tree.ReadFile(ctx, name); errors.Is(err, fs.ErrNotExist) {
			op.Result = models.FileCreated
		}
	}
	return op, nil
}
