package pddl

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

const (
	typeObject   = "obj"
	typePosition = "pos"

	defaultMetric = "(:metric minimize (total-cost))"
)

type TypedSymbol struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
}

// Binding ties a problem symbol back to what it stands for in the world.
type Binding struct {
	ObjectID string         `json:"object_id,omitempty"`
	Position *world.Vector3 `json:"position,omitempty"`
}

// ProblemDocument is the symbolic encoding of one request. Objects, Init and
// Goal are kept sorted so that rendering is deterministic.
type ProblemDocument struct {
	Name     string             `json:"name"`
	Domain   string             `json:"domain"`
	Kind     action.Kind        `json:"kind"`
	Objects  []TypedSymbol      `json:"objects"`
	Init     []string           `json:"init"`
	Goal     []string           `json:"goal"`
	Metric   string             `json:"metric,omitempty"`
	Bindings map[string]Binding `json:"bindings"`
}

func (d ProblemDocument) Resolve(symbol string) (Binding, bool) {
	b, ok := d.Bindings[symbol]
	return b, ok
}

// SymbolFor returns the symbol bound to an object identifier.
func (d ProblemDocument) SymbolFor(objectID string) (string, bool) {
	for sym, b := range d.Bindings {
		if b.ObjectID == objectID {
			return sym, true
		}
	}
	return "", false
}

func (d ProblemDocument) Render() []byte {
	var b bytes.Buffer
	b.WriteString("(define (problem " + d.Name + ")\n")
	b.WriteString("\t(:domain " + d.Domain + ")\n")

	b.WriteString("\t(:objects\n")
	for _, o := range d.Objects {
		b.WriteString("\t\t" + o.Symbol + " - " + o.Type + "\n")
	}
	b.WriteString("\t)\n")

	b.WriteString("\t(:init\n")
	for _, f := range d.Init {
		b.WriteString("\t\t" + f + "\n")
	}
	b.WriteString("\t)\n")

	b.WriteString("\t(:goal (and\n")
	for _, g := range d.Goal {
		b.WriteString("\t\t" + g + "\n")
	}
	b.WriteString("\t))\n")

	if d.Metric != "" {
		b.WriteString("\t" + d.Metric + "\n")
	}
	b.WriteString(")\n")
	return b.Bytes()
}

// Digest identifies the rendered document; equal digests mean equal problems.
func (d ProblemDocument) Digest() string {
	sum := sha256.Sum256(d.Render())
	return hex.EncodeToString(sum[:])
}

func (d *ProblemDocument) sortParts() {
	sort.Slice(d.Objects, func(i, j int) bool { return d.Objects[i].Symbol < d.Objects[j].Symbol })
	d.Init = sortedUnique(d.Init)
	d.Goal = sortedUnique(d.Goal)
}

func sortedUnique(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i > 0 && s == in[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
