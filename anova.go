package propeller

import (
	"github.com/cellprops/propeller/ebayes"
	"gonum.org/v1/gonum/mat"
)

// Anova tests each cluster for any association between its transformed
// proportions and the group design, via a moderated F statistic over the
// listed design columns. coef lists the zero-based columns to test jointly
// and defaults to all columns when nil. Variance shrinkage and BH adjustment
// follow TTest.
func Anova(props *PropsList, design *mat.Dense, coef []int, opts TestOptions) ([]Result, error) {
	_, cd := design.Dims()

	if coef == nil {
		coef = make([]int, cd)
		for j := range coef {
			coef[j] = j
		}
	}

	fit, err := ebayes.FitRows(props.TransformedProps, design)
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

	fres, err := ebayes.ModeratedF(fit, sq, coef)
	if err != nil {
		return nil, err
	}

	propFit, err := ebayes.FitRows(props.Proportions, design)
	if err != nil {
		return nil, err
	}

	fdr := ebayes.AdjustBH(fres.P)

	results := make([]Result, len(props.Clusters))
	for i := range results {
		means := make([]float64, cd)
		for j := 0; j < cd; j++ {
			means[j] = propFit.Coefficients.At(i, j)
		}

		results[i] = Result{
			Cluster:      props.Clusters[i],
			BaselineProp: props.Baseline[i],
			GroupMeans:   means,
			Statistic:    fres.F[i],
			PValue:       fres.P[i],
			FDR:          fdr[i],
		}
	}

	if opts.Sort {
		sortByPValue(results)
	}

	return results, nil
}
