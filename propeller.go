package propeller

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// Options configures a full proportion-testing run.
type Options struct {
	// Transform is the variance-stabilizing transform; empty means
	// TransformLogit.
	Transform Transform

	// Robust and Trend select the empirical-Bayes shrinkage variants.
	Robust bool
	Trend  bool

	// Sort orders results by ascending raw p-value.
	Sort bool
}

// DefaultOptions are the settings used when callers have no reason to choose:
// logit transform, robust shrinkage, no mean-variance trend, sorted output.
func DefaultOptions() Options {
	return Options{
		Transform: TransformLogit,
		Robust:    true,
		Sort:      true,
	}
}

// Run performs the whole pipeline on per-cell label slices: tabulate counts,
// transform proportions, build the sample × group design, and test every
// cluster — a moderated t-test when there are exactly two groups, a moderated
// F-test over all group columns when there are more. Fewer than two groups is
// an error, as is a design with one sample per group (no residual degrees of
// freedom; see ExactCounts for that case).
func Run(clusters, samples, groups []string, opts Options) ([]Result, error) {
	labels := Labels{Clusters: clusters, Samples: samples, Groups: groups}
	if err := labels.Validate(); err != nil {
		return nil, err
	}

	if opts.Transform == "" {
		opts.Transform = TransformLogit
	}

	props, err := TransformedProps(clusters, samples, opts.Transform)
	if err != nil {
		return nil, err
	}

	design, groupLevels, err := designFromLabels(samples, groups, props.Samples)
	if err != nil {
		return nil, err
	}

	if len(groupLevels) < 2 {
		return nil, pfx.Err(fmt.Errorf("found %d group level(s); at least 2 are required for a comparison", len(groupLevels)))
	}

	if len(props.Samples) <= len(groupLevels) {
		return nil, pfx.Err(fmt.Errorf("%d samples across %d groups leaves no residual degrees of freedom; with one sample per group use ExactCounts instead",
			len(props.Samples), len(groupLevels)))
	}

	testOpts := TestOptions{Robust: opts.Robust, Trend: opts.Trend, Sort: opts.Sort}

	if len(groupLevels) == 2 {
		return TTest(props, design, []float64{1, -1}, testOpts)
	}

	return Anova(props, design, nil, testOpts)
}

// RunFrom extracts labels from an annotated data source and runs the
// pipeline on them.
func RunFrom(src LabelSource, opts Options) ([]Result, error) {
	if src == nil {
		return nil, pfx.Err(fmt.Errorf("no label source provided"))
	}

	labels, err := src.CellLabels()
	if err != nil {
		return nil, err
	}

	return Run(labels.Clusters, labels.Samples, labels.Groups, opts)
}
