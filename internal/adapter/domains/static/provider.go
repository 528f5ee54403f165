// Package staticdomains serves domain files from a directory on disk, for
// deployments that tune the PDDL domains without rebuilding.
package staticdomains

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"thorplan/internal/app/ports"
)

type Provider struct {
	Root string
}

func (p Provider) Names(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.Root)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pddl") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func (p Provider) File(_ context.Context, name string) ([]byte, error) {
	safePath, err := secureJoin(p.Root, name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(safePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ports.ErrNotFound
	}
	return b, err
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", ports.ErrInvalidPath
	}
	if filepath.IsAbs(rel) {
		return "", ports.ErrInvalidPath
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(rootAbs, rel))
	prefix := rootAbs + string(filepath.Separator)
	if target != rootAbs && !strings.HasPrefix(target, prefix) {
		return "", ports.ErrInvalidPath
	}
	return target, nil
}
