package pddl

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultMarker       = "BASICACTION"
	DefaultSummaryToken = "time"
)

var (
	firstStepRe = regexp.MustCompile(`(?m)^[ \t]*(?:step)?[ \t]*0+(?:\.0+)?[ \t]*:`)
	stepLineRe  = regexp.MustCompile(`^[ \t]*(?:step)?[ \t]*\d+(?:\.\d+)?[ \t]*:`)

	trivialSignals = []string{
		"goal can be simplified to true",
		"the empty plan solves it",
	}
	unsolvableSignals = []string{
		"goal can be simplified to false",
		"problem proven unsolvable",
		"no plan will solve it",
	}
)

type Step struct {
	Index     int      `json:"index"`
	Timestamp string   `json:"timestamp"`
	Action    string   `json:"action"`
	Args      []string `json:"args"`
}

// Plan is the ordered step list decoded from solver output. A plan with no
// steps is a valid no-op.
type Plan struct {
	Steps []Step `json:"steps"`
}

func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Decoder extracts basic-action steps from raw solver output.
type Decoder struct {
	Marker       string
	SummaryToken string
}

func Decode(raw string) (Plan, error) {
	return Decoder{}.Decode(raw)
}

func (d Decoder) Decode(raw string) (Plan, error) {
	marker := d.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	summary := d.SummaryToken
	if summary == "" {
		summary = DefaultSummaryToken
	}

	lower := strings.ToLower(raw)
	for _, s := range unsolvableSignals {
		if strings.Contains(lower, s) {
			return Plan{}, &PlanParsingError{Reason: "solver proved the goal unreachable", Unsolvable: true}
		}
	}
	trivial := false
	for _, s := range trivialSignals {
		if strings.Contains(lower, s) {
			trivial = true
			break
		}
	}

	loc := firstStepRe.FindStringIndex(raw)
	if loc == nil {
		if trivial {
			return Plan{Steps: []Step{}}, nil
		}
		return Plan{}, &PlanParsingError{Reason: "no step marker found"}
	}
	firstLine := strings.Count(raw[:loc[0]], "\n") + 1

	lines := strings.Split(raw[loc[0]:], "\n")
	end := -1
	for i, line := range lines {
		if strings.Contains(line, summary) && !stepLineRe.MatchString(line) {
			end = i
			break
		}
	}
	if end < 0 {
		return Plan{}, &PlanParsingError{Reason: "no " + summary + " summary after the plan"}
	}

	steps := make([]Step, 0, end)
	for i, line := range lines[:end] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		body := line[colon+1:]
		at := strings.Index(body, marker)
		if at < 0 {
			continue
		}
		lineNo := firstLine + i
		ts, ok := parseTimestamp(line[:colon])
		if !ok {
			return Plan{}, &PlanParsingError{Line: lineNo, Text: line, Reason: "step has no timestamp"}
		}
		name, args, ok := splitBasicAction(body[at:])
		if !ok {
			return Plan{}, &PlanParsingError{Line: lineNo, Text: line, Reason: "step has no action name and argument"}
		}
		steps = append(steps, Step{Index: len(steps), Timestamp: ts, Action: name, Args: args})
	}

	if len(steps) == 0 && !trivial {
		return Plan{}, &PlanParsingError{Reason: "plan contains no basic actions"}
	}
	return Plan{Steps: steps}, nil
}

func parseTimestamp(prefix string) (string, bool) {
	ts := strings.TrimSpace(prefix)
	ts = strings.TrimSpace(strings.TrimPrefix(ts, "step"))
	if _, err := strconv.ParseFloat(ts, 64); err != nil {
		return "", false
	}
	return ts, true
}

// splitBasicAction reads "MARKER-OP NAME ARG...)" starting at the marker.
// The marker token itself is skipped and text after a closing parenthesis is
// dropped.
func splitBasicAction(s string) (string, []string, bool) {
	if i := strings.Index(s, ")"); i >= 0 {
		s = s[:i]
	}
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return "", nil, false
	}
	name := strings.ToLower(fields[1])
	args := make([]string, 0, len(fields)-2)
	for _, f := range fields[2:] {
		args = append(args, strings.ToLower(f))
	}
	return name, args, true
}
