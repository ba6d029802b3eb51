package propeller

import (
	"fmt"

	"github.com/carbocation/pfx"
	fet "github.com/glycerine/golang-fisher-exact"
	"github.com/tokenme/probab/dst"

	"github.com/cellprops/propeller/ebayes"
)

// ExactCounts tests each cluster on aggregated cell counts rather than
// per-sample proportions. It exists for unreplicated designs — one sample per
// group — where the linear-model path has no residual degrees of freedom to
// estimate variances from. Counts are pooled within each group and every
// cluster is tested against all remaining cells: Fisher's exact test for two
// groups, a chi-square test of independence for more. p-values are
// BH-adjusted across clusters.
//
// Pooled-count tests treat cells as independent draws, so with replicated
// designs they overstate significance; prefer Run whenever replicates exist.
func ExactCounts(clusters, groups []string, sortFlag bool) ([]Result, error) {
	if len(clusters) == 0 || len(groups) == 0 {
		return nil, pfx.Err(fmt.Errorf("cluster and group labels are required"))
	}

	if len(clusters) != len(groups) {
		return nil, pfx.Err(fmt.Errorf("got %d cluster labels but %d group labels; one of each is required per cell", len(clusters), len(groups)))
	}

	clusterLevels, clusterIdx := factorLevels(clusters)
	groupLevels, groupIdx := factorLevels(groups)

	if len(groupLevels) < 2 {
		return nil, pfx.Err(fmt.Errorf("found %d group level(s); at least 2 are required for a comparison", len(groupLevels)))
	}

	nr, ng := len(clusterLevels), len(groupLevels)

	counts := make([][]int, nr)
	for r := range counts {
		counts[r] = make([]int, ng)
	}
	groupTotals := make([]int, ng)
	for i := range clusters {
		r := clusterIdx[clusters[i]]
		g := groupIdx[groups[i]]
		counts[r][g]++
		groupTotals[g]++
	}
	for g, n := range groupTotals {
		if n == 0 {
			return nil, pfx.Err(fmt.Errorf("group %q has no cells", groupLevels[g]))
		}
	}

	total := len(clusters)

	pvalues := make([]float64, nr)
	results := make([]Result, nr)
	for r := 0; r < nr; r++ {
		rowTotal := 0
		means := make([]float64, ng)
		for g := 0; g < ng; g++ {
			rowTotal += counts[r][g]
			means[g] = float64(counts[r][g]) / float64(groupTotals[g])
		}

		var p float64
		if ng == 2 {
			// 2x2 table: this cluster vs the rest, group 1 vs group 2.
			_, _, _, p = fet.FisherExactTest(
				counts[r][0], groupTotals[0]-counts[r][0],
				counts[r][1], groupTotals[1]-counts[r][1],
			)
		} else {
			p = chiSquareIndependence(counts[r], groupTotals, rowTotal, total)
		}
		pvalues[r] = p

		res := Result{
			Cluster:      clusterLevels[r],
			BaselineProp: float64(rowTotal) / float64(total),
			GroupMeans:   means,
			PValue:       p,
		}
		if ng == 2 {
			res.MeanDiff = means[0] - means[1]
			res.PropRatio = means[0] / means[1]
		}
		results[r] = res
	}

	for i, adj := range ebayes.AdjustBH(pvalues) {
		results[i].FDR = adj
	}

	if sortFlag {
		sortByPValue(results)
	}

	return results, nil
}

// chiSquareIndependence is the chi-square test of independence on the 2 × G
// table formed by one cluster's counts against all remaining cells, with G-1
// degrees of freedom.
func chiSquareIndependence(row []int, groupTotals []int, rowTotal, total int) (p float64) {
	// dst panics on degenerate inputs; an empty row carries no evidence.
	defer func() { recover() }()

	p = 1.0

	if rowTotal == 0 || rowTotal == total {
		return p
	}

	var x2 float64
	for g := range row {
		colTotal := float64(groupTotals[g])

		for _, obsExp := range [][2]float64{
			{float64(row[g]), colTotal * float64(rowTotal) / float64(total)},
			{colTotal - float64(row[g]), colTotal * float64(total-rowTotal) / float64(total)},
		} {
			obs, exp := obsExp[0], obsExp[1]
			if exp > 0 {
				x2 += (obs - exp) * (obs - exp) / exp
			}
		}
	}

	p = 1.0 - dst.ChiSquareCDF(int64(len(row)-1))(x2)

	return p
}
