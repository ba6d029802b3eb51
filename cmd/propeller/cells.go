package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/cellprops/propeller"
)

// cellCSV reads per-cell labels from a comma-delimited file with a header
// row. Column names are matched case-insensitively against the configured
// names; a missing or multiply-matching column is an error at this boundary,
// so the core never deals in field names.
type cellCSV struct {
	Path       string
	ClusterCol string
	SampleCol  string
	GroupCol   string
}

func (c *cellCSV) CellLabels() (propeller.Labels, error) {
	var out propeller.Labels

	f, err := os.Open(c.Path)
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return out, pfx.Err(fmt.Errorf("reading header of %s: %v", c.Path, err))
	}

	clusterIdx, err := columnIndex(header, c.ClusterCol)
	if err != nil {
		return out, err
	}
	sampleIdx, err := columnIndex(header, c.SampleCol)
	if err != nil {
		return out, err
	}
	groupIdx, err := columnIndex(header, c.GroupCol)
	if err != nil {
		return out, err
	}

	for {
		line, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return out, pfx.Err(err)
		}

		out.Clusters = append(out.Clusters, line[clusterIdx])
		out.Samples = append(out.Samples, line[sampleIdx])
		out.Groups = append(out.Groups, line[groupIdx])
	}

	return out, nil
}

// columnIndex resolves a column name case-insensitively against the header,
// failing on missing or ambiguous matches rather than silently picking one.
func columnIndex(header []string, name string) (int, error) {
	found := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			if found >= 0 {
				return 0, pfx.Err(fmt.Errorf("column %q matches both %q and %q in the header", name, header[found], h))
			}
			found = i
		}
	}

	if found < 0 {
		return 0, pfx.Err(fmt.Errorf("no column matching %q in header %v", name, header))
	}

	return found, nil
}
