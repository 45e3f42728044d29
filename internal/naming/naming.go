// Package naming resolves sibling name collisions the Windows way:
// "name", "name (1)", "name (2)", ... Existing objects are never renamed or
// overwritten, only the incoming name gets a suffix.
package naming

import (
	"fmt"

	"fileinbox-service/internal/apperr"
)

const maxSuffix = 10000

func ResolveConflict(name string, taken []string) (string, error) {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}
	if _, ok := used[name]; !ok {
		return name, nil
	}
	for i := 1; i <= maxSuffix; i++ {
		candidate := fmt.Sprintf("%s (%d)", name, i)
		if _, ok := used[candidate]; !ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %q: %w", name, apperr.ErrNameConflict)
}
