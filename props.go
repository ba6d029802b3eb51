// Package propeller tests whether per-sample cell type proportions differ
// between experimental groups in single-cell sequencing data. Per-cell
// cluster and sample labels become a clusters × samples count matrix, counts
// become variance-stabilized proportions, and each cluster is tested with a
// linear model whose variance is moderated by empirical-Bayes shrinkage
// across clusters (a moderated t-test for two groups, a moderated F-test for
// more).
package propeller

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// Transform names a variance-stabilizing transform for proportions.
type Transform string

const (
	// TransformLogit is log(p/(1-p)) after a pseudo-count adjustment that
	// keeps boundary proportions finite.
	TransformLogit Transform = "logit"

	// TransformAsin is asin(sqrt(p)), finite on all of [0,1] with no
	// adjustment.
	TransformAsin Transform = "asin"
)

// The total pseudo mass added to each sample when guarding the logit
// transform, split across clusters in proportion to their overall abundance.
const pseudoMass = 0.5

// PropsList holds the count, proportion, and transformed proportion matrices
// for one dataset. Rows are clusters and columns are samples, both in level
// order.
type PropsList struct {
	// Clusters are the row labels, the cluster factor levels.
	Clusters []string

	// Samples are the column labels, the sample factor levels.
	Samples []string

	// Counts is the clusters × samples cell count matrix.
	Counts *mat.Dense

	// Proportions is Counts with each column divided by its sum.
	Proportions *mat.Dense

	// TransformedProps is Proportions through the chosen transform.
	TransformedProps *mat.Dense

	// Baseline is the overall fraction of all cells in each cluster,
	// independent of any grouping.
	Baseline []float64
}

// TransformedProps tabulates per-cell cluster and sample labels into counts,
// converts the counts to per-sample proportions, and applies the chosen
// variance-stabilizing transform. The two label slices are parallel, one
// entry per cell.
func TransformedProps(clusters, samples []string, transform Transform) (*PropsList, error) {
	if len(clusters) == 0 || len(samples) == 0 {
		return nil, pfx.Err(fmt.Errorf("cluster and sample labels are required"))
	}

	if len(clusters) != len(samples) {
		return nil, pfx.Err(fmt.Errorf("got %d cluster labels but %d sample labels; one of each is required per cell", len(clusters), len(samples)))
	}

	switch transform {
	case TransformLogit, TransformAsin:
	default:
		return nil, pfx.Err(fmt.Errorf("unknown transform %q; expected %q or %q", transform, TransformLogit, TransformAsin))
	}

	clusterLevels, clusterIdx := factorLevels(clusters)
	sampleLevels, sampleIdx := factorLevels(samples)

	nr, nc := len(clusterLevels), len(sampleLevels)

	counts := mat.NewDense(nr, nc, nil)
	for i := range clusters {
		r := clusterIdx[clusters[i]]
		c := sampleIdx[samples[i]]
		counts.Set(r, c, counts.At(r, c)+1)
	}

	// Column totals. A column can only be zero if the caller supplied sample
	// levels some other way, but the contract is to fail rather than divide.
	colSums := make([]float64, nc)
	total := 0.0
	for c := 0; c < nc; c++ {
		for r := 0; r < nr; r++ {
			colSums[c] += counts.At(r, c)
		}
		if colSums[c] == 0 {
			return nil, pfx.Err(fmt.Errorf("sample %q has no cells; its proportions are undefined", sampleLevels[c]))
		}
		total += colSums[c]
	}

	baseline := make([]float64, nr)
	for r := 0; r < nr; r++ {
		for c := 0; c < nc; c++ {
			baseline[r] += counts.At(r, c)
		}
		baseline[r] /= total
	}

	props := mat.NewDense(nr, nc, nil)
	for r := 0; r < nr; r++ {
		for c := 0; c < nc; c++ {
			props.Set(r, c, counts.At(r, c)/colSums[c])
		}
	}

	trans := mat.NewDense(nr, nc, nil)
	switch transform {
	case TransformAsin:
		for r := 0; r < nr; r++ {
			for c := 0; c < nc; c++ {
				trans.Set(r, c, math.Asin(math.Sqrt(props.At(r, c))))
			}
		}

	case TransformLogit:
		if nr < 2 {
			return nil, pfx.Err(fmt.Errorf("the logit transform needs at least two clusters; every proportion of a single cluster is exactly 1"))
		}

		// Shrink each column's proportions toward the cluster baseline with
		// pseudoMass extra cells per sample, so no entry is exactly 0 or 1:
		// (n + m*baseline) / (N + m). The adjustment vanishes as N grows.
		for r := 0; r < nr; r++ {
			for c := 0; c < nc; c++ {
				p := (counts.At(r, c) + pseudoMass*baseline[r]) / (colSums[c] + pseudoMass)
				trans.Set(r, c, math.Log(p/(1-p)))
			}
		}
	}

	return &PropsList{
		Clusters:         clusterLevels,
		Samples:          sampleLevels,
		Counts:           counts,
		Proportions:      props,
		TransformedProps: trans,
		Baseline:         baseline,
	}, nil
}
