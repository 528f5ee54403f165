package domains

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"thorplan/internal/app/ports"
	"thorplan/internal/domain/action"
	"thorplan/internal/domain/pddl"
)

type Entry struct {
	Name   string   `json:"name"`
	Size   int      `json:"size"`
	SHA256 string   `json:"sha256"`
	Kinds  []string `json:"kinds"`
}

type Index struct {
	Unified bool    `json:"unified"`
	Domains []Entry `json:"domains"`
}

type UseCase struct {
	Provider ports.DomainProvider
	// Unified reports which file each kind is solved against.
	Unified bool
}

func (u UseCase) Index(ctx context.Context) (Index, error) {
	names, err := u.Provider.Names(ctx)
	if err != nil {
		return Index{}, err
	}
	byFile := map[string][]string{}
	for _, k := range action.Kinds() {
		name := pddl.DomainFile(k, u.Unified)
		byFile[name] = append(byFile[name], string(k))
	}
	out := Index{Unified: u.Unified, Domains: make([]Entry, 0, len(names))}
	for _, name := range names {
		b, err := u.Provider.File(ctx, name)
		if err != nil {
			return Index{}, fmt.Errorf("read %s: %w", name, err)
		}
		sum := sha256.Sum256(b)
		kinds := byFile[name]
		if kinds == nil {
			kinds = []string{}
		}
		out.Domains = append(out.Domains, Entry{Name: name, Size: len(b), SHA256: hex.EncodeToString(sum[:]), Kinds: kinds})
	}
	return out, nil
}

func (u UseCase) File(ctx context.Context, name string) ([]byte, error) {
	return u.Provider.File(ctx, name)
}

// Materialize copies every served file into dir for the external solver,
// leaving files whose content already matches untouched.
func (u UseCase) Materialize(ctx context.Context, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create domain dir: %w", err)
	}
	names, err := u.Provider.Names(ctx)
	if err != nil {
		return 0, err
	}
	written := 0
	for _, name := range names {
		b, err := u.Provider.File(ctx, name)
		if err != nil {
			return written, fmt.Errorf("read %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if cur, err := os.ReadFile(path); err == nil && bytes.Equal(cur, b) {
			continue
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return written, fmt.Errorf("write domain %s: %w", name, err)
		}
		written++
	}
	return written, nil
}
