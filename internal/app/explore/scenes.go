package explore

import (
	"fmt"
	"strconv"
	"strings"
)

// SceneRange is an inclusive block of scene numbers of one room type.
type SceneRange struct {
	Name  string `yaml:"name" json:"name"`
	First int    `yaml:"first" json:"first"`
	Last  int    `yaml:"last" json:"last"`
}

func (r SceneRange) Scenes() []int {
	out := make([]int, 0, r.Last-r.First+1)
	for n := r.First; n <= r.Last; n++ {
		out = append(out, n)
	}
	return out
}

func (r SceneRange) Contains(n int) bool {
	return n >= r.First && n <= r.Last
}

func DefaultCatalog() []SceneRange {
	return []SceneRange{
		{Name: "kitchens", First: 1, Last: 30},
		{Name: "living_rooms", First: 201, Last: 230},
		{Name: "bedrooms", First: 301, Last: 330},
		{Name: "bathrooms", First: 401, Last: 430},
	}
}

// ParseScenes reads a selection such as "kitchens,201-205,402" against the
// catalog. An empty selection is the whole catalog. Numbers outside the
// catalog are rejected.
func ParseScenes(spec string, catalog []SceneRange) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		out := make([]int, 0)
		for _, r := range catalog {
			out = append(out, r.Scenes()...)
		}
		return out, nil
	}
	seen := map[int]bool{}
	out := make([]int, 0)
	add := func(n int) error {
		if !inCatalog(n, catalog) {
			return fmt.Errorf("scene %d is not in the catalog", n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
		return nil
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if r, ok := rangeByName(part, catalog); ok {
			for _, n := range r.Scenes() {
				_ = add(n)
			}
			continue
		}
		lo, hi, err := parseSpan(part)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			if err := add(n); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func parseSpan(s string) (int, int, error) {
	a, b, isRange := strings.Cut(s, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("bad scene %q", s)
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil || hi < lo {
		return 0, 0, fmt.Errorf("bad scene range %q", s)
	}
	return lo, hi, nil
}

func rangeByName(name string, catalog []SceneRange) (SceneRange, bool) {
	for _, r := range catalog {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return SceneRange{}, false
}

func inCatalog(n int, catalog []SceneRange) bool {
	for _, r := range catalog {
		if r.Contains(n) {
			return true
		}
	}
	return false
}
