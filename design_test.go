package propeller

import "testing"

func TestDesignFromLabels(t *testing.T) {
	samples := []string{"s1", "s1", "s2", "s3", "s3", "s4"}
	groups := []string{"g2", "g2", "g1", "g2", "g2", "g1"}

	design, groupLevels, err := designFromLabels(samples, groups, []string{"s1", "s2", "s3", "s4"})
	if err != nil {
		t.Fatal(err)
	}

	if len(groupLevels) != 2 || groupLevels[0] != "g1" || groupLevels[1] != "g2" {
		t.Fatalf("group levels: got %v", groupLevels)
	}

	want := [][]float64{
		{0, 1}, // s1 → g2
		{1, 0}, // s2 → g1
		{0, 1}, // s3 → g2
		{1, 0}, // s4 → g1
	}
	for r := range want {
		var rowSum float64
		for c := range want[r] {
			if got := design.At(r, c); got != want[r][c] {
				t.Errorf("design(%d,%d): got %f, expected %f", r, c, got, want[r][c])
			}
			rowSum += design.At(r, c)
		}
		if rowSum != 1 {
			t.Errorf("design row %d sums to %f, expected exactly 1", r, rowSum)
		}
	}
}

func TestDesignFromLabelsRejectsSplitSample(t *testing.T) {
	samples := []string{"s1", "s1", "s2"}
	groups := []string{"g1", "g2", "g2"}

	if _, _, err := designFromLabels(samples, groups, []string{"s1", "s2"}); err == nil {
		t.Error("expected an error when one sample carries two group labels")
	}
}

func TestDesignFromLabelsRejectsUnlabeledSample(t *testing.T) {
	samples := []string{"s1", "s2"}
	groups := []string{"g1", "g2"}

	if _, _, err := designFromLabels(samples, groups, []string{"s1", "s2", "s3"}); err == nil {
		t.Error("expected an error for a sample level with no group")
	}
}
