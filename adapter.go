package propeller

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// Labels carries one (cluster, sample, group) label triple per cell. The
// three slices are parallel: the i-th entry of each describes the same cell.
type Labels struct {
	Clusters []string
	Samples  []string
	Groups   []string
}

// LabelSource extracts per-cell labels from an annotated single-cell dataset.
// It is the only capability the core requires of a data container; how the
// container stores its metadata, and under what field names, is the source's
// concern alone.
type LabelSource interface {
	CellLabels() (Labels, error)
}

// Validate checks that the label slices are parallel and non-empty.
func (l Labels) Validate() error {
	if len(l.Clusters) == 0 && len(l.Samples) == 0 && len(l.Groups) == 0 {
		return pfx.Err(fmt.Errorf("no cell labels provided"))
	}

	if len(l.Clusters) != len(l.Samples) || len(l.Samples) != len(l.Groups) {
		return pfx.Err(fmt.Errorf("label slices must be the same length: %d clusters, %d samples, %d groups",
			len(l.Clusters), len(l.Samples), len(l.Groups)))
	}

	return nil
}
