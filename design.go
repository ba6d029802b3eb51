package propeller

import (
	"fmt"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// designFromLabels cross-tabulates per-cell sample and group labels into a
// samples × groups indicator design matrix with no intercept column. Rows
// follow sampleLevels (the column order of the proportions matrix) and
// columns are the group factor levels in level order.
//
// Every sample must belong to exactly one group. A sample whose cells carry
// two different group labels is a data contract violation and is rejected
// here rather than silently becoming a design row with multiple ones.
func designFromLabels(samples, groups []string, sampleLevels []string) (*mat.Dense, []string, error) {
	if len(samples) != len(groups) {
		return nil, nil, pfx.Err(fmt.Errorf("got %d sample labels but %d group labels; one of each is required per cell", len(samples), len(groups)))
	}

	groupLevels, groupIdx := factorLevels(groups)

	sampleGroup := make(map[string]string, len(sampleLevels))
	for i, s := range samples {
		g := groups[i]
		if prev, seen := sampleGroup[s]; seen && prev != g {
			return nil, nil, pfx.Err(fmt.Errorf("sample %q appears under groups %q and %q; every sample must belong to exactly one group", s, prev, g))
		}
		sampleGroup[s] = g
	}

	design := mat.NewDense(len(sampleLevels), len(groupLevels), nil)
	for r, s := range sampleLevels {
		g, ok := sampleGroup[s]
		if !ok {
			return nil, nil, pfx.Err(fmt.Errorf("sample %q has no group label", s))
		}
		design.Set(r, groupIdx[g], 1)
	}

	return design, groupLevels, nil
}
