package harness

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/evmatch/internal/engine"
)

// checkMatches compares actual matches with the expected subscription IDs
// per scope. Order within a scope is ignored. Returns one message per
// mismatching scope.
func checkMatches(label string, expected map[string][]string, matches []engine.Match) []string {
	actual := make(map[string][]string, len(matches))
	for _, m := range matches {
		actual[m.ScopeType] = append(actual[m.ScopeType], m.SubscriptionIDs()...)
	}

	scopes := make([]string, 0, len(expected)+len(actual))
	for s := range expected {
		scopes = append(scopes, s)
	}
	for s := range actual {
		if _, ok := expected[s]; !ok {
			scopes = append(scopes, s)
		}
	}
	sort.Strings(scopes)

	var errs []string
	for _, scope := range scopes {
		want := sortedCopy(expected[scope])
		got := sortedCopy(actual[scope])
		if !slices.Equal(want, got) {
			errs = append(errs, fmt.Sprintf("%s: scope %s matched %v, expected %v", label, scope, got, want))
		}
	}
	return errs
}

func sortedCopy(ids []string) []string {
	out := slices.Clone(ids)
	if out == nil {
		out = []string{}
	}
	sort.Strings(out)
	return out
}
