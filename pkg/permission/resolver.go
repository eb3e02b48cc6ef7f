package permission

import "sort"

// Resolve computes the effective permission set for a membership: the role's
// base permissions unioned with the membership's exception permissions.
//
// The result contains no duplicates even when a code is reachable through
// both paths, and is sorted by code so serialized claim lists are
// deterministic. The union is recomputed on every scoped-token issuance and
// never cached, so revocations take effect on the next login or company
// selection.
func Resolve(basePermissions, exceptionPermissions []string) []string {
	seen := make(map[string]struct{}, len(basePermissions)+len(exceptionPermissions))
	for _, code := range basePermissions {
		seen[code] = struct{}{}
	}
	for _, code := range exceptionPermissions {
		seen[code] = struct{}{}
	}

	resolved := make([]string, 0, len(seen))
	for code := range seen {
		resolved = append(resolved, code)
	}
	sort.Strings(resolved)
	return resolved
}
