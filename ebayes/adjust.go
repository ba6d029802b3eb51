package ebayes

import "sort"

// AdjustBH returns Benjamini-Hochberg adjusted p-values, controlling the
// false discovery rate across the input. The i-th output corresponds to the
// i-th input. Adjusted values are never smaller than the raw values and are
// clamped at 1.
func AdjustBH(pvalues []float64) []float64 {
	n := len(pvalues)
	if n == 0 {
		return nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return pvalues[idx[a]] < pvalues[idx[b]] })

	adjusted := make([]float64, n)
	running := 1.0
	for i := n - 1; i >= 0; i-- {
		orig := idx[i]
		v := pvalues[orig] * float64(n) / float64(i+1)
		if v > 1 {
			v = 1
		}
		if v < running {
			running = v
		}
		adjusted[orig] = running
	}

	return adjusted
}
