package embeddeddomains

import (
	"context"
	"errors"
	"strings"
	"testing"

	"thorplan/internal/app/ports"
)

func TestProvider_ServesEmbeddedDomains(t *testing.T) {
	p := Provider{}
	names, err := p.Names(context.Background())
	if err != nil || len(names) == 0 {
		t.Fatalf("expected embedded names, got %v %v", names, err)
	}
	b, err := p.File(context.Background(), "domain_pickup.pddl")
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if !strings.Contains(strings.ToLower(string(b)), "basicaction-pickup") {
		t.Fatalf("pickup domain lacks its operator")
	}
	if _, err := p.File(context.Background(), "domain_juggle.pddl"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := p.File(context.Background(), "../go.mod"); !errors.Is(err, ports.ErrInvalidPath) {
		t.Fatalf("expected invalid path, got %v", err)
	}
}
