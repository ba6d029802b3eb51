package ebayes

import (
	"fmt"
	"math"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
)

// Variances at or below this floor are treated as this value before taking
// logs. Rows this degenerate end up dominated by the prior.
const varFloor = 1e-15

// Winsorization tail probabilities for robust prior estimation, expressed as
// percentiles.
const (
	winsorLowerPct = 5.0
	winsorUpperPct = 95.0
)

// Squeezed holds per-row posterior variances after empirical-Bayes shrinkage
// of the observed residual variances toward a common prior.
type Squeezed struct {
	// VarPost is the posterior variance for each row.
	VarPost []float64

	// VarPrior is the prior variance for each row. Without a trend it is the
	// same value for every row.
	VarPrior []float64

	// DFPrior is the prior degrees of freedom. math.Inf(1) means the observed
	// variances are consistent with a single common value, in which case
	// VarPost equals VarPrior everywhere.
	DFPrior float64
}

// SqueezeOptions selects variants of the variance shrinkage.
type SqueezeOptions struct {
	// Robust estimates the prior from winsorized log-variances, so extreme
	// rows do not drag the prior toward themselves.
	Robust bool

	// Trend allows the prior variance to depend on Covariate, typically the
	// mean of each row of the data.
	Trend bool

	// Covariate is required when Trend is set and must have one entry per
	// row of s2.
	Covariate []float64
}

// Squeeze shrinks the per-row sample variances s2, each on df degrees of
// freedom, toward a common prior estimated from all rows by the method of
// moments on log-variances. It follows the scaled-F model of Smyth (2004):
// s2 ~ s0^2 * F(df, d0), giving posterior variances
//
//	s2.post = (d0*s0^2 + df*s2) / (d0 + df)
//
// where d0 and s0^2 are the prior degrees of freedom and variance.
func Squeeze(s2 []float64, df float64, opts SqueezeOptions) (*Squeezed, error) {
	n := len(s2)
	if n == 0 {
		return nil, pfx.Err(fmt.Errorf("no variances to squeeze"))
	}
	if df <= 0 {
		return nil, pfx.Err(fmt.Errorf("residual degrees of freedom must be positive, got %g", df))
	}
	if opts.Trend && len(opts.Covariate) != n {
		return nil, pfx.Err(fmt.Errorf("trend covariate has %d entries but there are %d variances", len(opts.Covariate), n))
	}

	z := make([]float64, n)
	for i, v := range s2 {
		if v < varFloor {
			v = varFloor
		}
		z[i] = math.Log(v)
	}

	// With a single row there is nothing to pool across; the "prior" is the
	// row itself and no shrinkage occurs.
	if n == 1 {
		return &Squeezed{
			VarPost:  []float64{s2[0]},
			VarPrior: []float64{s2[0]},
			DFPrior:  0,
		}, nil
	}

	// Location of log(s2) under the scaled-F model, per row. Without a trend
	// this is a single constant.
	zloc := make([]float64, n)
	if opts.Trend {
		smoothByCovariate(opts.Covariate, z, zloc)
	} else {
		center := z
		if opts.Robust {
			var err error
			if center, err = winsorize(z); err != nil {
				return nil, err
			}
		}
		m := stat.Mean(center, nil)
		for i := range zloc {
			zloc[i] = m
		}
	}

	// Moments of e = log(s2) corrected for the expectation and variance of a
	// log chi-square on df degrees of freedom.
	resid := make([]float64, n)
	for i := range z {
		resid[i] = z[i] - zloc[i]
	}
	if opts.Robust {
		var err error
		if resid, err = winsorize(resid); err != nil {
			return nil, err
		}
	}

	evar := stat.Variance(resid, nil) - trigamma(df/2)

	out := &Squeezed{
		VarPost:  make([]float64, n),
		VarPrior: make([]float64, n),
	}

	// E[log s2] = log(s0^2) + digamma(df/2) - log(df/2) - digamma(d0/2) +
	// log(d0/2) under the scaled-F model, so the location of z must be
	// corrected by both chi-square bias terms to recover log(s0^2).
	biasObs := digamma(df/2) - math.Log(df/2)

	if evar <= 0 {
		// The spread of the observed variances is no larger than sampling
		// noise alone would produce: the rows share one variance.
		out.DFPrior = math.Inf(1)
		for i := range out.VarPrior {
			out.VarPrior[i] = math.Exp(zloc[i] - biasObs)
			out.VarPost[i] = out.VarPrior[i]
		}
		return out, nil
	}

	d0 := 2 * trigammaInverse(evar)
	out.DFPrior = d0

	adj := digamma(d0/2) - math.Log(d0/2) - biasObs
	for i := range out.VarPrior {
		out.VarPrior[i] = math.Exp(zloc[i] + adj)
		out.VarPost[i] = (d0*out.VarPrior[i] + df*s2[i]) / (d0 + df)
	}

	return out, nil
}

// smoothByCovariate writes into dst a moving-average smooth of y over rows
// ordered by the covariate. The window spans roughly a fifth of the rows,
// at least one on each side, truncated at the ends.
func smoothByCovariate(covariate, y, dst []float64) {
	n := len(y)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return covariate[order[a]] < covariate[order[b]] })

	half := n / 10
	if half < 1 {
		half = 1
	}

	for rank, idx := range order {
		lo := rank - half
		if lo < 0 {
			lo = 0
		}
		hi := rank + half
		if hi > n-1 {
			hi = n - 1
		}

		var sum float64
		for k := lo; k <= hi; k++ {
			sum += y[order[k]]
		}
		dst[idx] = sum / float64(hi-lo+1)
	}
}

// winsorize clamps x at its lower and upper winsorization percentiles,
// returning a new slice. Percentile needs at least a full observation in the
// tail; with too few rows the clamp on that side becomes a no-op.
func winsorize(x []float64) ([]float64, error) {
	lo, err := stats.Percentile(x, winsorLowerPct)
	if err != nil {
		if lo, err = stats.Min(x); err != nil {
			return nil, pfx.Err(err)
		}
	}
	hi, err := stats.Percentile(x, winsorUpperPct)
	if err != nil {
		if hi, err = stats.Max(x); err != nil {
			return nil, pfx.Err(err)
		}
	}

	out := make([]float64, len(x))
	for i, v := range x {
		switch {
		case v < lo:
			out[i] = lo
		case v > hi:
			out[i] = hi
		default:
			out[i] = v
		}
	}

	return out, nil
}

func digamma(x float64) float64 {
	return mathext.Digamma(x)
}

// trigamma is the second derivative of the log gamma function, via the
// Hurwitz zeta identity psi'(x) = zeta(2, x).
func trigamma(x float64) float64 {
	return mathext.Zeta(2, x)
}

// tetragamma is the third derivative of the log gamma function,
// psi''(x) = -2*zeta(3, x).
func tetragamma(x float64) float64 {
	return -2 * mathext.Zeta(3, x)
}

// trigammaInverse solves trigamma(y) = x for y by Newton iteration, following
// the monotone convergence scheme of Smyth (2004).
func trigammaInverse(x float64) float64 {
	if x > 1e7 {
		return 1 / math.Sqrt(x)
	}
	if x < 1e-6 {
		return 1 / x
	}

	y := 0.5 + 1/x
	for i := 0; i < 50; i++ {
		tri := trigamma(y)
		dif := tri * (1 - tri/x) / tetragamma(y)
		y += dif

		if -dif/y < 1e-8 {
			break
		}
	}

	return y
}
