package ebayes

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testMatrix() *mat.Dense {
	return mat.NewDense(3, 4, []float64{
		1.0, 1.2, 3.0, 3.2, // large group difference
		2.0, 2.2, 2.3, 2.5, // small group difference
		1.5, 1.7, 1.6, 1.8, // no group difference
	})
}

func TestModeratedT(t *testing.T) {
	fit, err := FitRows(testMatrix(), twoGroupDesign())
	if err != nil {
		t.Fatal(err)
	}

	cf, err := Contrast(fit, []float64{1, -1})
	if err != nil {
		t.Fatal(err)
	}

	sq, err := Squeeze(fit.Sigma2, fit.DFResidual, SqueezeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	res, err := ModeratedT(cf, sq, fit.DFResidual)
	if err != nil {
		t.Fatal(err)
	}

	for i := range res.T {
		if math.IsNaN(res.T[i]) || math.IsInf(res.T[i], 0) {
			t.Fatalf("t[%d] = %f, expected finite", i, res.T[i])
		}
		if res.P[i] <= 0 || res.P[i] > 1 {
			t.Fatalf("p[%d] = %f, expected in (0,1]", i, res.P[i])
		}

		// The t statistic carries the sign of the contrast.
		if cf.Coef[i]*res.T[i] < 0 {
			t.Errorf("t[%d] = %f disagrees in sign with contrast %f", i, res.T[i], cf.Coef[i])
		}
	}

	// The first row has by far the largest group difference with comparable
	// within-group spread, so it must be the most significant.
	if !(res.P[0] < res.P[1] && res.P[0] < res.P[2]) {
		t.Errorf("expected row 0 most significant, got p = %v", res.P)
	}

	if res.DFTotal < fit.DFResidual {
		t.Errorf("adjusted df %f should not be below residual df %f", res.DFTotal, fit.DFResidual)
	}
}

// A t-test of a group difference and an F-test of the indicator coefficient
// in the equivalent intercept parametrization fit the same model, so F = t²
// and the p-values agree.
func TestModeratedFEqualsSquaredT(t *testing.T) {
	y := testMatrix()

	groupMeans := twoGroupDesign()
	intercept := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 0,
		1, 1,
		1, 1,
	})

	fitT, err := FitRows(y, groupMeans)
	if err != nil {
		t.Fatal(err)
	}
	cf, err := Contrast(fitT, []float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}
	sqT, err := Squeeze(fitT.Sigma2, fitT.DFResidual, SqueezeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	tres, err := ModeratedT(cf, sqT, fitT.DFResidual)
	if err != nil {
		t.Fatal(err)
	}

	fitF, err := FitRows(y, intercept)
	if err != nil {
		t.Fatal(err)
	}
	sqF, err := Squeeze(fitF.Sigma2, fitF.DFResidual, SqueezeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	fres, err := ModeratedF(fitF, sqF, []int{1})
	if err != nil {
		t.Fatal(err)
	}

	for i := range tres.T {
		if gotF, wantF := fres.F[i], tres.T[i]*tres.T[i]; math.Abs(gotF-wantF) > 1e-8*math.Max(1, wantF) {
			t.Errorf("row %d: F = %f, expected t² = %f", i, gotF, wantF)
		}
		if math.Abs(fres.P[i]-tres.P[i]) > 1e-8 {
			t.Errorf("row %d: F p-value %f differs from t p-value %f", i, fres.P[i], tres.P[i])
		}
	}
}

func TestModeratedFCoefValidation(t *testing.T) {
	fit, err := FitRows(testMatrix(), twoGroupDesign())
	if err != nil {
		t.Fatal(err)
	}
	sq, err := Squeeze(fit.Sigma2, fit.DFResidual, SqueezeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	for _, coef := range [][]int{
		{},
		{2},
		{-1},
		{0, 0},
	} {
		if _, err := ModeratedF(fit, sq, coef); err == nil {
			t.Errorf("expected an error for coefficient indices %v", coef)
		}
	}
}

func TestAdjustBH(t *testing.T) {
	raw := []float64{0.005, 0.011, 0.02, 0.04}
	want := []float64{0.02, 0.022, 4.0 * 0.02 / 3.0, 0.04}

	got := AdjustBH(raw)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("adjusted[%d]: got %f, expected %f", i, got[i], want[i])
		}
	}

	// Adjusted values never drop below the raw values and never exceed 1.
	raw = []float64{0.9, 0.5, 0.0001, 1, 0.03, 0.6}
	got = AdjustBH(raw)
	for i := range raw {
		if got[i] < raw[i] || got[i] > 1 {
			t.Errorf("adjusted[%d] = %f out of range for raw %f", i, got[i], raw[i])
		}
	}

	if AdjustBH(nil) != nil {
		t.Error("expected nil for empty input")
	}
}
