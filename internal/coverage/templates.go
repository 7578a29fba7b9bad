package coverage

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// UntestedTemplates returns the templates the runner never rendered that no
// ignore pattern covers, sorted
func UntestedTemplates(unused, ignore []string) []string {
	var out []string
	for _, t := range unused {
		if !matchesAny(t, ignore) {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
