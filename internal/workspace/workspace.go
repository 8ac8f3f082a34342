package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var ErrOutsideRoot = errors.New("path escapes repository root")

// Tree is a read-only view of a repository's files. Paths are slash-separated
// and relative to the repository root. ReadFile returns an error wrapping
// fs.ErrNotExist for missing files.
type Tree interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Root() string {
	return l.root
}

func (l *Local) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := SafeJoin(l.root, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// List walks the working copy, skipping the .git directory.
func (l *Local) List(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// SafeJoin resolves name below root and rejects anything that would land
// outside it, including through symlinks already present in the working copy.
func SafeJoin(root, name string) (string, error) {
	clean, err := Clean(name)
	if err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(absRoot, filepath.FromSlash(clean))

	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}
	if resolved, ok := resolveExisting(full); ok {
		if !within(resolvedRoot, resolved) {
			return "", fmt.Errorf("%q: %w", name, ErrOutsideRoot)
		}
	}
	return full, nil
}

// Clean is the lexical half of SafeJoin: it normalizes name and rejects
// absolute paths and parent escapes.
func Clean(name string) (string, error) {
	if name == "" || path.IsAbs(name) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%q: %w", name, ErrOutsideRoot)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%q: %w", name, ErrOutsideRoot)
	}
	return clean, nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of p.
func resolveExisting(p string) (string, bool) {
	rest := ""
	for cur := p; ; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, rest), true
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
