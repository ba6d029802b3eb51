package propeller

import "sort"

// factorLevels returns the sorted distinct labels and a label-to-index map,
// the categorical levels of the input in level order.
func factorLevels(labels []string) ([]string, map[string]int) {
	seen := make(map[string]bool)
	levels := make([]string, 0)

	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			levels = append(levels, l)
		}
	}

	sort.Strings(levels)

	index := make(map[string]int, len(levels))
	for i, l := range levels {
		index[l] = i
	}

	return levels, index
}
