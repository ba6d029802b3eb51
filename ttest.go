package propeller

import (
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/cellprops/propeller/ebayes"
	"gonum.org/v1/gonum/mat"
)

// TestOptions selects variants of the per-cluster hypothesis test.
type TestOptions struct {
	// Robust makes the empirical-Bayes variance prior resistant to clusters
	// with outlying variances.
	Robust bool

	// Trend lets the variance prior depend on each cluster's mean
	// transformed proportion.
	Trend bool

	// Sort orders the output by ascending raw p-value. When unset the output
	// keeps cluster level order.
	Sort bool
}

// TTest tests each cluster for a difference in transformed proportions
// between two groups. The design is the no-intercept samples × groups
// indicator matrix; contrast picks the comparison between its columns and
// defaults to first minus second when nil. Each cluster's variance is shrunk
// toward the common empirical-Bayes prior before the t statistic is formed,
// and p-values are BH-adjusted across clusters.
func TTest(props *PropsList, design *mat.Dense, contrast []float64, opts TestOptions) ([]Result, error) {
	_, cd := design.Dims()

	if contrast == nil {
		if cd != 2 {
			return nil, pfx.Err(fmt.Errorf("no contrast given and the design has %d group columns; the default contrast requires exactly 2", cd))
		}
		contrast = []float64{1, -1}
	}

	fit, err := ebayes.FitRows(props.TransformedProps, design)
	if err != nil {
		return nil, err
	}

	cf, err := ebayes.Contrast(fit, contrast)
	if err != nil {
		return nil, err
	}

	sq, err := ebayes.Squeeze(fit.Sigma2, fit.DFResidual, ebayes.SqueezeOptions{
		Robust:    opts.Robust,
		Trend:     opts.Trend,
		Covariate: fit.AMean,
	})
	if err != nil {
		return nil, err
	}

	tres, err := ebayes.ModeratedT(cf, sq, fit.DFResidual)
	if err != nil {
		return nil, err
	}

	// A second fit on the untransformed proportions provides the reported
	// per-group means and their difference on the proportion scale.
	propFit, err := ebayes.FitRows(props.Proportions, design)
	if err != nil {
		return nil, err
	}

	fdr := ebayes.AdjustBH(tres.P)

	results := make([]Result, len(props.Clusters))
	for i := range results {
		means := make([]float64, cd)
		var diff, num, den float64
		for j := 0; j < cd; j++ {
			means[j] = propFit.Coefficients.At(i, j)
			diff += contrast[j] * means[j]
			if contrast[j] > 0 {
				num += contrast[j] * means[j]
			} else if contrast[j] < 0 {
				den += -contrast[j] * means[j]
			}
		}

		results[i] = Result{
			Cluster:      props.Clusters[i],
			BaselineProp: props.Baseline[i],
			GroupMeans:   means,
			MeanDiff:     diff,
			PropRatio:    num / den,
			Statistic:    tres.T[i],
			PValue:       tres.P[i],
			FDR:          fdr[i],
		}
	}

	if opts.Sort {
		sortByPValue(results)
	}

	return results, nil
}
