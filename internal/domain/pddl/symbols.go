package pddl

import (
	"fmt"
	"math"
	"strings"

	"thorplan/internal/domain/world"
)

// reserved holds the domain constants an object symbol must never shadow.
var reserved = map[string]bool{
	"navigate": true, "moveto": true, "pickup": true, "open": true, "close": true,
	"break": true, "cook": true, "slice": true, "toggleon": true, "toggleoff": true,
	"dirty": true, "clean": true, "fill": true, "empty": true, "useup": true,
	"drop": true, "put": true, "coffee": true, "wine": true, "water": true,
}

type symbolTable struct {
	used map[string]bool
}

func newSymbolTable() *symbolTable {
	return &symbolTable{used: map[string]bool{}}
}

// assign maps a raw identifier to a unique lower-case symbol. Callers must
// assign in a stable order for the result to be deterministic.
func (t *symbolTable) assign(raw string) string {
	base := sanitize(raw)
	sym := base
	for n := 2; t.used[sym] || reserved[sym]; n++ {
		sym = fmt.Sprintf("%s_%d", base, n)
	}
	t.used[sym] = true
	return sym
}

// sanitize lower-cases raw and folds every run of other characters,
// decimal points included, into one underscore.
func sanitize(raw string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		s = "o_" + s
	}
	return s
}

func positionSymbol(p world.Vector3) string {
	return fmt.Sprintf("pos_%s_%s", coord(p.X), coord(p.Z))
}

func coord(v float64) string {
	n := int(math.Round(v * 100))
	if n < 0 {
		return fmt.Sprintf("m%d", -n)
	}
	return fmt.Sprintf("%d", n)
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
