package pddl

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"thorplan/internal/domain/action"
)

//go:embed domains/*.pddl
var domainFS embed.FS

const UnifiedDomainFile = "domain_input.pddl"

var ErrUnknownDomain = errors.New("unknown domain file")

// DomainFile names the domain file a request of kind k is solved against.
func DomainFile(k action.Kind, unified bool) string {
	if unified {
		return UnifiedDomainFile
	}
	rule, ok := action.Lookup(k)
	if !ok {
		return ""
	}
	return "domain_" + rule.Family + ".pddl"
}

// DomainFiles lists the embedded domain file names, sorted.
func DomainFiles() []string {
	entries, err := fs.ReadDir(domainFS, "domains")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func ReadDomain(name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
	b, err := domainFS.ReadFile("domains/" + name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
	return b, nil
}

// MaterializeDomains writes every embedded domain file into dir so an
// external solver can read them by path.
func MaterializeDomains(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create domain dir: %w", err)
	}
	for _, name := range DomainFiles() {
		b, err := ReadDomain(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			return fmt.Errorf("write domain %s: %w", name, err)
		}
	}
	return nil
}
