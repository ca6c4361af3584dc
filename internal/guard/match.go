package guard

import (
	"strings"
)

// Match reports whether a request path matches a rule pattern. Patterns are
// literal paths, or a prefix followed by "/*" (exactly one more segment) or
// "/**" (the prefix itself and anything below it). "/**" alone matches every
// path.
func Match(pattern, path string) bool {
	if base, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == base || strings.HasPrefix(path, base+"/")
	}
	if base, ok := strings.CutSuffix(pattern, "/*"); ok {
		rest, ok := strings.CutPrefix(path, base+"/")
		return ok && rest != "" && !strings.Contains(rest, "/")
	}
	return pattern == path
}

// overlap reports whether two patterns can both match some path. Checked with
// representative paths rather than a product construction; the pattern
// language is small enough for that to be exact.
func overlap(a, b string) bool {
	for _, probe := range representatives(a) {
		if Match(b, probe) {
			return true
		}
	}
	for _, probe := range representatives(b) {
		if Match(a, probe) {
			return true
		}
	}
	return false
}

func representatives(pattern string) []string {
	if base, ok := strings.CutSuffix(pattern, "/**"); ok {
		probes := []string{base + "/x", base + "/x/y"}
		if base != "" {
			probes = append(probes, base)
		}
		return probes
	}
	if base, ok := strings.CutSuffix(pattern, "/*"); ok {
		return []string{base + "/x"}
	}
	return []string{pattern}
}
