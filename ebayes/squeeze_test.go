package ebayes

import (
	"math"
	"testing"
)

func TestSqueezeEqualVariances(t *testing.T) {
	s2 := []float64{0.5, 0.5, 0.5, 0.5, 0.5}

	sq, err := Squeeze(s2, 4, SqueezeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if !math.IsInf(sq.DFPrior, 1) {
		t.Errorf("equal variances should give an infinite prior df, got %f", sq.DFPrior)
	}

	for i, v := range sq.VarPost {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			t.Fatalf("VarPost[%d] = %f, expected finite and positive", i, v)
		}
		if math.Abs(v-sq.VarPost[0]) > 1e-12 {
			t.Errorf("VarPost[%d] = %f differs from VarPost[0] = %f; equal inputs should squeeze identically", i, v, sq.VarPost[0])
		}
	}
}

func TestSqueezeShrinksTowardPrior(t *testing.T) {
	s2 := []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2}

	sq, err := Squeeze(s2, 4, SqueezeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if sq.DFPrior <= 0 || math.IsInf(sq.DFPrior, 0) {
		t.Fatalf("heterogeneous variances should give a finite positive prior df, got %f", sq.DFPrior)
	}

	// Each posterior is a weighted average of the sample variance and the
	// prior, so it must land between them.
	for i := range s2 {
		lo := math.Min(s2[i], sq.VarPrior[i])
		hi := math.Max(s2[i], sq.VarPrior[i])
		if sq.VarPost[i] < lo-1e-12 || sq.VarPost[i] > hi+1e-12 {
			t.Errorf("VarPost[%d] = %f outside [%f, %f]", i, sq.VarPost[i], lo, hi)
		}
	}
}

func TestSqueezeZeroVariance(t *testing.T) {
	s2 := []float64{0, 0.3, 0.4, 0.5, 0.6}

	sq, err := Squeeze(s2, 4, SqueezeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if sq.VarPost[0] <= 0 {
		t.Errorf("a zero sample variance must still squeeze to a positive posterior, got %f", sq.VarPost[0])
	}
}

func TestSqueezeRobustWithOutlier(t *testing.T) {
	s2 := []float64{0.2, 0.21, 0.19, 0.2, 0.22, 0.18, 0.2, 0.21, 0.19, 1000}

	sq, err := Squeeze(s2, 4, SqueezeOptions{Robust: true})
	if err != nil {
		t.Fatal(err)
	}

	if sq.DFPrior <= 0 {
		t.Errorf("prior df should be positive, got %f", sq.DFPrior)
	}

	for i, v := range sq.VarPost {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			t.Errorf("VarPost[%d] = %f, expected finite and positive", i, v)
		}
	}
}

func TestSqueezeTrend(t *testing.T) {
	s2 := []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8}
	covariate := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	sq, err := Squeeze(s2, 4, SqueezeOptions{Trend: true, Covariate: covariate})
	if err != nil {
		t.Fatal(err)
	}

	// The prior should follow the variance trend: larger at the high end of
	// the covariate than at the low end.
	first, last := sq.VarPrior[0], sq.VarPrior[len(sq.VarPrior)-1]
	if last <= first {
		t.Errorf("trended prior should increase along the covariate: first %f, last %f", first, last)
	}
}

func TestSqueezeInputErrors(t *testing.T) {
	if _, err := Squeeze(nil, 4, SqueezeOptions{}); err == nil {
		t.Error("expected an error for empty input")
	}

	if _, err := Squeeze([]float64{1, 2}, 0, SqueezeOptions{}); err == nil {
		t.Error("expected an error for nonpositive df")
	}

	if _, err := Squeeze([]float64{1, 2}, 4, SqueezeOptions{Trend: true, Covariate: []float64{1}}); err == nil {
		t.Error("expected an error for a covariate of the wrong length")
	}
}

func TestTrigammaInverseRoundTrip(t *testing.T) {
	for _, x := range []float64{0.1, 0.5, 1, 2.5, 10, 100} {
		if got := trigammaInverse(trigamma(x)); math.Abs(got-x) > 1e-6*x {
			t.Errorf("trigammaInverse(trigamma(%f)) = %f", x, got)
		}
	}
}
