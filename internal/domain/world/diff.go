package world

import (
	"errors"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// FloatTolerance is the largest numeric difference still treated as equal.
const FloatTolerance = 1e-2

var ErrDisjointSnapshots = errors.New("snapshots share no object identifiers")

var skippedProperties = map[string]bool{
	"axisAlignedBoundingBox":    true,
	"objectOrientedBoundingBox": true,
}

// ChangePath is the ordered list of keys from an object's root property map
// down to a changed value.
type ChangePath []string

func (p ChangePath) String() string {
	return strings.Join(p, ".")
}

// presencePrefix cannot start a simulator property key.
const presencePrefix = "@"

// PresencePath marks a whole object as added or removed.
func PresencePath(kind ChangeKind) ChangePath {
	return ChangePath{presencePrefix + string(kind)}
}

// Presence reports whether p is a PresencePath and which kind it marks.
func (p ChangePath) Presence() (ChangeKind, bool) {
	if len(p) != 1 || !strings.HasPrefix(p[0], presencePrefix) {
		return "", false
	}
	switch k := ChangeKind(strings.TrimPrefix(p[0], presencePrefix)); k {
	case ChangeAdded, ChangeRemoved:
		return k, true
	}
	return "", false
}

type ChangeKind string

const (
	ChangeModified ChangeKind = "modified"
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
)

type ObjectChange struct {
	ObjectID string       `json:"object_id"`
	Kind     ChangeKind   `json:"kind"`
	Paths    []ChangePath `json:"paths,omitempty"`
}

// EffectReport pairs the snapshots around one executed request with the
// changes detected on its target and, optionally, on every object.
type EffectReport struct {
	Before        Snapshot       `json:"before"`
	After         Snapshot       `json:"after"`
	TargetID      string         `json:"target_id,omitempty"`
	TargetChanges []ChangePath   `json:"target_changes"`
	Changes       []ObjectChange `json:"changes,omitempty"`
}

// Diff compares every object present in either snapshot. Objects missing
// from after are reported as removed; objects new in after as added.
func Diff(before, after Snapshot) ([]ObjectChange, error) {
	if err := checkOverlap(before, after); err != nil {
		return nil, err
	}
	afterByID := make(map[string]WorldObject, len(after.Objects))
	for _, o := range after.Objects {
		afterByID[o.ID] = o
	}
	beforeIDs := make(map[string]bool, len(before.Objects))

	out := make([]ObjectChange, 0)
	for _, b := range before.Objects {
		beforeIDs[b.ID] = true
		a, ok := afterByID[b.ID]
		if !ok {
			out = append(out, ObjectChange{ObjectID: b.ID, Kind: ChangeRemoved})
			continue
		}
		paths := DiffProperties(b.Props, a.Props)
		if b.Type != a.Type {
			paths = append([]ChangePath{{propObjectType}}, paths...)
		}
		if len(paths) > 0 {
			out = append(out, ObjectChange{ObjectID: b.ID, Kind: ChangeModified, Paths: paths})
		}
	}
	for _, a := range after.Objects {
		if !beforeIDs[a.ID] {
			out = append(out, ObjectChange{ObjectID: a.ID, Kind: ChangeAdded})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ObjectID < out[j].ObjectID })
	return out, nil
}

// DiffObject returns the change paths of a single object. An object present
// in only one snapshot yields a single PresencePath.
func DiffObject(before, after Snapshot, id string) ([]ChangePath, error) {
	if err := checkOverlap(before, after); err != nil {
		return nil, err
	}
	b, okB := before.Object(id)
	a, okA := after.Object(id)
	switch {
	case !okB && !okA:
		return nil, nil
	case !okA:
		return []ChangePath{PresencePath(ChangeRemoved)}, nil
	case !okB:
		return []ChangePath{PresencePath(ChangeAdded)}, nil
	}
	return DiffProperties(b.Props, a.Props), nil
}

// DiffProperties walks two property maps and returns the sorted paths of
// every changed value.
func DiffProperties(before, after map[string]Property) []ChangePath {
	out := make([]ChangePath, 0)
	diffTree(nil, before, after, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func diffTree(prefix ChangePath, before, after map[string]Property, out *[]ChangePath) {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	for k := range keys {
		if skippedProperties[k] {
			continue
		}
		path := appendPath(prefix, k)
		b, okB := before[k]
		a, okA := after[k]
		if !okB || !okA {
			*out = append(*out, path)
			continue
		}
		switch {
		case b.IsTree() && a.IsTree():
			diffTree(path, b.Tree, a.Tree, out)
		case b.IsTree() != a.IsTree():
			*out = append(*out, path)
		case !leafEqual(b.Leaf, a.Leaf):
			*out = append(*out, path)
		}
	}
}

func appendPath(prefix ChangePath, key string) ChangePath {
	p := make(ChangePath, len(prefix), len(prefix)+1)
	copy(p, prefix)
	return append(p, key)
}

// leafEqual compares leaves with the numeric tolerance applied at every
// depth of nested lists and maps.
func leafEqual(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !leafEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !leafEqual(x, y) {
				return false
			}
		}
		return true
	}
	fa, okA := asFloat(a)
	fb, okB := asFloat(b)
	if okA && okB {
		return math.Abs(fa-fb) <= FloatTolerance
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func checkOverlap(before, after Snapshot) error {
	if len(before.Objects) == 0 || len(after.Objects) == 0 {
		return nil
	}
	ids := make(map[string]bool, len(before.Objects))
	for _, o := range before.Objects {
		ids[o.ID] = true
	}
	for _, o := range after.Objects {
		if ids[o.ID] {
			return nil
		}
	}
	return ErrDisjointSnapshots
}

// Lookup follows a change path back into a property map.
func Lookup(props map[string]Property, path ChangePath) (Property, bool) {
	if len(path) == 0 {
		return Property{}, false
	}
	cur, ok := props[path[0]]
	if !ok {
		return Property{}, false
	}
	for _, key := range path[1:] {
		if !cur.IsTree() {
			return Property{}, false
		}
		cur, ok = cur.Tree[key]
		if !ok {
			return Property{}, false
		}
	}
	return cur, true
}
