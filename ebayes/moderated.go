package ebayes

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TResult holds per-row moderated t statistics with their two-sided p-values.
type TResult struct {
	T []float64
	P []float64

	// DFTotal is the empirical-Bayes-adjusted degrees of freedom used for
	// the Student-t reference distribution.
	DFTotal float64
}

// ModeratedT computes the moderated t statistic for each row's contrast,
// using the squeezed posterior variances in place of the per-row sample
// variances. Degrees of freedom are the residual df plus the prior df, capped
// at the total df pooled across all rows.
func ModeratedT(cf *ContrastFit, sq *Squeezed, dfResidual float64) (*TResult, error) {
	n := len(cf.Coef)
	if len(sq.VarPost) != n {
		return nil, pfx.Err(fmt.Errorf("contrast has %d rows but squeeze has %d", n, len(sq.VarPost)))
	}

	out := &TResult{
		T:       make([]float64, n),
		P:       make([]float64, n),
		DFTotal: totalDF(dfResidual, sq.DFPrior, n),
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: out.DFTotal}

	for i := range cf.Coef {
		se := cf.StdevUnscaled * math.Sqrt(sq.VarPost[i])
		if se <= 0 {
			// Fully degenerate row: no evidence either way.
			out.T[i] = 0
			out.P[i] = 1
			continue
		}

		out.T[i] = cf.Coef[i] / se
		out.P[i] = 2 * tdist.CDF(-math.Abs(out.T[i]))
	}

	return out, nil
}

// FResult holds per-row moderated F statistics with their p-values.
type FResult struct {
	F []float64
	P []float64

	// DFNumerator is the number of jointly tested coefficients.
	DFNumerator float64

	// DFTotal is the empirical-Bayes-adjusted denominator degrees of freedom.
	DFTotal float64
}

// ModeratedF computes, for each row, the moderated F statistic testing the
// joint null hypothesis that all coefficients listed in coef are zero, using
// squeezed posterior variances. Coefficient indices are zero-based columns of
// the fitted coefficient matrix.
func ModeratedF(fit *Fit, sq *Squeezed, coef []int) (*FResult, error) {
	ry, cd := fit.Coefficients.Dims()
	if len(sq.VarPost) != ry {
		return nil, pfx.Err(fmt.Errorf("fit has %d rows but squeeze has %d", ry, len(sq.VarPost)))
	}

	k := len(coef)
	if k == 0 {
		return nil, pfx.Err(fmt.Errorf("no coefficients listed for the F test"))
	}
	seen := make(map[int]bool, k)
	for _, c := range coef {
		if c < 0 || c >= cd {
			return nil, pfx.Err(fmt.Errorf("coefficient index %d out of range; the model has %d coefficients", c, cd))
		}
		if seen[c] {
			return nil, pfx.Err(fmt.Errorf("coefficient index %d listed twice", c))
		}
		seen[c] = true
	}

	// Invert the tested block of (X'X)^-1 so the quadratic form accounts for
	// correlation between the tested coefficients.
	sub := mat.NewDense(k, k, nil)
	for a, ca := range coef {
		for b, cb := range coef {
			sub.Set(a, b, fit.Cov.At(ca, cb))
		}
	}
	var subInv mat.Dense
	if err := subInv.Inverse(sub); err != nil {
		return nil, pfx.Err(fmt.Errorf("tested coefficients are linearly dependent: %v", err))
	}

	out := &FResult{
		F:           make([]float64, ry),
		P:           make([]float64, ry),
		DFNumerator: float64(k),
		DFTotal:     totalDF(fit.DFResidual, sq.DFPrior, ry),
	}

	fdist := distuv.F{D1: out.DFNumerator, D2: out.DFTotal}

	b := make([]float64, k)
	for i := 0; i < ry; i++ {
		for a, c := range coef {
			b[a] = fit.Coefficients.At(i, c)
		}

		var quad float64
		for a := 0; a < k; a++ {
			for c := 0; c < k; c++ {
				quad += b[a] * subInv.At(a, c) * b[c]
			}
		}

		if sq.VarPost[i] <= 0 {
			out.F[i] = 0
			out.P[i] = 1
			continue
		}

		out.F[i] = quad / (out.DFNumerator * sq.VarPost[i])
		out.P[i] = 1 - fdist.CDF(out.F[i])
	}

	return out, nil
}

// totalDF is residual plus prior degrees of freedom, capped at the residual
// df pooled over all rows so an infinite prior still yields a usable
// reference distribution.
func totalDF(dfResidual, dfPrior float64, nrows int) float64 {
	pooled := dfResidual * float64(nrows)
	df := dfResidual + dfPrior
	if df > pooled {
		df = pooled
	}
	return df
}
