package scene

import (
	"strconv"
	"strings"
)

// SanitizeName turns a human-readable object name into a valid scene-node
// identifier: hyphens and spaces become underscores, apostrophes are removed.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "'", "")
	return name
}

// nameRegistry disambiguates sanitized identifiers within one scene.
// Distinct source names can collapse to the same identifier ("Coffee Table"
// and "Coffee-Table" both sanitize to Coffee_Table); the registry suffixes
// _2, _3, ... on collision.
type nameRegistry map[string]int

func (r nameRegistry) unique(name string) string {
	s := SanitizeName(name)
	r[s]++
	if r[s] == 1 {
		return s
	}
	for {
		candidate := s + "_" + strconv.Itoa(r[s])
		if _, taken := r[candidate]; !taken {
			r[candidate] = 1
			return candidate
		}
		r[s]++
	}
}
