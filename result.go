package propeller

import "sort"

// Result is one row of the output table, one per cluster. Statistic is a
// moderated t for the two-group path and a moderated F for the multi-group
// path; MeanDiff and PropRatio are filled only by the two-group path.
type Result struct {
	Cluster string

	// BaselineProp is the overall fraction of all cells in this cluster,
	// independent of grouping.
	BaselineProp float64

	// GroupMeans is the mean untransformed proportion per group, in group
	// level order.
	GroupMeans []float64

	// MeanDiff is the contrast applied to the per-group mean proportions.
	MeanDiff float64

	// PropRatio is the ratio of the mean proportions on the positive and
	// negative sides of the contrast.
	PropRatio float64

	Statistic float64
	PValue    float64
	FDR       float64
}

// sortByPValue stably orders results by ascending raw p-value, ties keeping
// their original row order.
func sortByPValue(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PValue < results[j].PValue
	})
}
