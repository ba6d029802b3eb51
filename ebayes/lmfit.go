// Package ebayes fits per-row ordinary least squares models and moderates
// their variance estimates by empirical-Bayes shrinkage across rows. It
// implements the narrow subset of the limma linear-model machinery that
// proportion testing needs: row-wise fits against a shared design matrix,
// variance pooling toward a common (optionally trended) prior, and moderated
// t and F statistics with adjusted degrees of freedom.
package ebayes

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// Fit holds the result of fitting one ordinary least squares model per row of
// a data matrix against a shared design matrix.
type Fit struct {
	// Coefficients is rows × coefficients.
	Coefficients *mat.Dense

	// Sigma2 is the residual variance for each row.
	Sigma2 []float64

	// DFResidual is the residual degrees of freedom, identical for every row
	// because the design is shared.
	DFResidual float64

	// AMean is the mean of each row of the data, used as the covariate for
	// trended variance priors.
	AMean []float64

	// Cov is (X'X)^-1 for the design X. Scaled by a row's residual variance
	// it gives that row's coefficient covariance.
	Cov *mat.Dense
}

// FitRows fits one least squares model per row of y (rows × samples) against
// design (samples × coefficients). The design must have more rows than
// columns and be of full column rank, otherwise there are no residual degrees
// of freedom to estimate variances from.
func FitRows(y *mat.Dense, design *mat.Dense) (*Fit, error) {
	ry, cy := y.Dims()
	rd, cd := design.Dims()

	if cy != rd {
		return nil, pfx.Err(fmt.Errorf("data has %d columns but design has %d rows; one design row is required per sample", cy, rd))
	}

	if rd <= cd {
		return nil, pfx.Err(fmt.Errorf("design has %d rows and %d columns, leaving no residual degrees of freedom", rd, cd))
	}

	// Solve X B' = Y' in the least squares sense for all rows at once.
	var bt mat.Dense
	if err := bt.Solve(design, y.T()); err != nil {
		return nil, pfx.Err(fmt.Errorf("design matrix is rank deficient: %v", err))
	}

	var xtx mat.Dense
	xtx.Mul(design.T(), design)

	var cov mat.Dense
	if err := cov.Inverse(&xtx); err != nil {
		return nil, pfx.Err(fmt.Errorf("design matrix is rank deficient: %v", err))
	}

	// Fitted values, transposed to samples × rows to match bt.
	var fitted mat.Dense
	fitted.Mul(design, &bt)

	dfResidual := float64(rd - cd)

	coefficients := mat.NewDense(ry, cd, nil)
	sigma2 := make([]float64, ry)
	amean := make([]float64, ry)

	for i := 0; i < ry; i++ {
		for j := 0; j < cd; j++ {
			coefficients.Set(i, j, bt.At(j, i))
		}

		var rss, sum float64
		for s := 0; s < cy; s++ {
			obs := y.At(i, s)
			resid := obs - fitted.At(s, i)
			rss += resid * resid
			sum += obs
		}

		sigma2[i] = rss / dfResidual
		amean[i] = sum / float64(cy)
	}

	return &Fit{
		Coefficients: coefficients,
		Sigma2:       sigma2,
		DFResidual:   dfResidual,
		AMean:        amean,
		Cov:          &cov,
	}, nil
}

// ContrastFit reduces a multi-coefficient fit to a single linear combination
// of coefficients per row.
type ContrastFit struct {
	// Coef is the contrast applied to each row's fitted coefficients.
	Coef []float64

	// StdevUnscaled is sqrt(c' (X'X)^-1 c); multiplied by a row's residual
	// standard deviation it gives the standard error of that row's contrast.
	StdevUnscaled float64
}

// Contrast applies the given contrast vector to every row of the fit. The
// contrast length must match the number of fitted coefficients.
func Contrast(fit *Fit, contrast []float64) (*ContrastFit, error) {
	ry, cd := fit.Coefficients.Dims()

	if len(contrast) != cd {
		return nil, pfx.Err(fmt.Errorf("contrast has %d entries but the model has %d coefficients", len(contrast), cd))
	}

	cvec := mat.NewVecDense(cd, contrast)

	// c' (X'X)^-1 c
	var tmp mat.VecDense
	tmp.MulVec(fit.Cov, cvec)
	cvc := mat.Dot(cvec, &tmp)

	out := &ContrastFit{
		Coef:          make([]float64, ry),
		StdevUnscaled: math.Sqrt(cvc),
	}

	for i := 0; i < ry; i++ {
		var v float64
		for j := 0; j < cd; j++ {
			v += fit.Coefficients.At(i, j) * contrast[j]
		}
		out.Coef[i] = v
	}

	return out, nil
}
