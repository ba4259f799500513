package image

import (
	"sort"
	"strings"
)

// ComputeTag derives the canonical image tag for a base image and a
// service set. The base reference is lowercased with every character
// outside [a-z0-9] mapped to '-', then the sorted service ids are
// appended, underscore separated. The result is stable across input
// order and process restarts; it is the only name an image is known by.
func ComputeTag(baseImage string, serviceIDs []string) string {
	normalized := normalizeRef(baseImage)
	if len(serviceIDs) == 0 {
		return normalized
	}

	ids := make([]string, len(serviceIDs))
	copy(ids, serviceIDs)
	sort.Strings(ids)

	return normalized + "_" + strings.Join(ids, "_")
}

func normalizeRef(ref string) string {
	var b strings.Builder
	b.Grow(len(ref))
	for _, r := range strings.ToLower(ref) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return b.String()
}
