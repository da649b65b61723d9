package policy

import (
	"sort"
	"strings"

	"github.com/gatewarden/gatewarden/core"
)

// resourceKey is order-insensitive over the statement's resource set
func resourceKey(statement core.PermissionStatement) string {
	resources := make([]string, len(statement.Resources))
	copy(resources, statement.Resources)
	sort.Strings(resources)
	return strings.Join(resources, "\x1f")
}

// mergeStatements flattens per-group statements, drops duplicate
// (sid, resource-set) pairs and stable-sorts by sid
func mergeStatements(records map[string][]core.PermissionStatement, groups []string) []core.PermissionStatement {
	seen := map[string]bool{}
	merged := []core.PermissionStatement{}

	for _, group := range groups {
		for _, statement := range records[group] {
			key := statement.Sid + "\x00" + resourceKey(statement)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, statement)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Sid < merged[j].Sid
	})

	return merged
}

// matchResource reports whether pattern covers resource.
// Only a trailing wildcard is significant.
func matchResource(pattern, resource string) bool {
	if pattern == resource {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(resource, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// evaluateEffect applies deny-overrides: Allow iff at least one Allow
// statement is not overridden by a Deny on the same resource set.
// With prefixOverride, a Deny whose patterns cover every resource of an
// Allow also overrides it.
func evaluateEffect(statements []core.PermissionStatement, prefixOverride bool) core.Effect {
	denied := map[string]bool{}
	denyStatements := []core.PermissionStatement{}
	for _, statement := range statements {
		if statement.Effect == core.EffectDeny {
			denied[resourceKey(statement)] = true
			denyStatements = append(denyStatements, statement)
		}
	}

	for _, statement := range statements {
		if statement.Effect != core.EffectAllow {
			continue
		}
		if denied[resourceKey(statement)] {
			continue
		}
		if prefixOverride && coveredByDeny(statement, denyStatements) {
			continue
		}
		return core.EffectAllow
	}

	return core.EffectDeny
}

func coveredByDeny(allow core.PermissionStatement, denies []core.PermissionStatement) bool {
	for _, resource := range allow.Resources {
		covered := false
		for _, deny := range denies {
			for _, pattern := range deny.Resources {
				if matchResource(pattern, resource) {
					covered = true
					break
				}
			}
			if covered {
				break
			}
		}
		if !covered {
			return false
		}
	}
	return len(allow.Resources) > 0
}
