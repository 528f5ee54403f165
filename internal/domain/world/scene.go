package world

import (
	"strconv"
	"strings"
)

const scenePrefix = "FloorPlan"

func SceneName(n int) string {
	return scenePrefix + strconv.Itoa(n)
}

// SceneNumber parses "FloorPlan<n>" or a bare number.
func SceneNumber(name string) (int, bool) {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(strings.TrimPrefix(name, scenePrefix), "_physics")
	n, err := strconv.Atoi(name)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
