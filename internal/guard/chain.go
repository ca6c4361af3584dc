package guard

import (
	"fmt"
	"net/http"
	"sort"
)

// Rule binds a path pattern to a guard with an explicit precedence. Lower
// Order values are evaluated first.
type Rule struct {
	Pattern string
	Guard   Guard
	Order   int
}

// Chain selects exactly one guard per request path: rules are evaluated in
// ascending order and the first pattern match is authoritative. A failing
// guard terminates the request; there is no fallthrough to a lower-precedence
// rule for the same request.
type Chain struct {
	rules []Rule
}

// NewChain validates and sorts the rule set. Configuration is rejected when
// two rules covering overlapping paths share an order value (the winner would
// depend on input order), or when no catch-all rule exists (some path would be
// left unguarded).
func NewChain(rules []Rule) (*Chain, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no guard rules configured")
	}

	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].Order != sorted[j].Order {
				break
			}
			if overlap(sorted[i].Pattern, sorted[j].Pattern) {
				return nil, fmt.Errorf("rules %q and %q overlap with equal order %d",
					sorted[i].Pattern, sorted[j].Pattern, sorted[i].Order)
			}
		}
	}

	catchAll := false
	for _, rule := range sorted {
		if rule.Pattern == "/**" {
			catchAll = true
			break
		}
	}
	if !catchAll {
		return nil, fmt.Errorf("no catch-all rule: configuration leaves paths unguarded")
	}

	return &Chain{rules: sorted}, nil
}

// Select returns the authoritative guard for a path.
func (c *Chain) Select(path string) (Guard, bool) {
	for _, rule := range c.rules {
		if Match(rule.Pattern, path) {
			return rule.Guard, true
		}
	}
	return nil, false
}

// Middleware applies the chain to every request. On success the security
// context rides the request context down to the handler; on failure the
// guard's response terminates the request.
func (c *Chain) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		selected, ok := c.Select(r.URL.Path)
		if !ok {
			// NewChain guarantees a catch-all; fail closed regardless.
			(&Failure{Status: http.StatusUnauthorized, Code: "unauthenticated"}).WriteResponse(w, r)
			return
		}

		sc, failure := selected.Authenticate(r)
		if failure != nil {
			failure.WriteResponse(w, r)
			return
		}
		if sc != nil {
			r = r.WithContext(NewContext(r.Context(), sc))
		}

		next.ServeHTTP(w, r)
	})
}
