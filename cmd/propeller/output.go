package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/gocarina/gocsv"

	"github.com/cellprops/propeller"
)

type resultRow struct {
	Cluster      string  `csv:"cluster"`
	BaselineProp float64 `csv:"baseline_prop"`
	GroupMeans   string  `csv:"group_means"`
	MeanDiff     float64 `csv:"mean_diff"`
	PropRatio    float64 `csv:"prop_ratio"`
	Statistic    float64 `csv:"statistic"`
	PValue       float64 `csv:"p_value"`
	FDR          float64 `csv:"fdr"`
}

func writeResults(results []propeller.Result, out io.Writer) error {
	rows := make([]*resultRow, 0, len(results))
	for _, r := range results {
		means := make([]string, 0, len(r.GroupMeans))
		for _, m := range r.GroupMeans {
			means = append(means, fmt.Sprintf("%.6g", m))
		}

		rows = append(rows, &resultRow{
			Cluster:      r.Cluster,
			BaselineProp: r.BaselineProp,
			GroupMeans:   strings.Join(means, ";"),
			MeanDiff:     r.MeanDiff,
			PropRatio:    r.PropRatio,
			Statistic:    r.Statistic,
			PValue:       r.PValue,
			FDR:          r.FDR,
		})
	}

	return gocsv.Marshal(&rows, out)
}

func printPValueHistogram(results []propeller.Result) {
	pvalues := make([]float64, 0, len(results))
	for _, r := range results {
		pvalues = append(pvalues, r.PValue)
	}

	// Bucket count mirrors the number of clusters tested, capped for
	// readability.
	bins := len(pvalues)
	if bins > 25 {
		bins = 25
	}
	if bins < 2 {
		return
	}

	hist := histogram.Hist(bins, pvalues)
	histogram.Fprint(os.Stderr, hist, histogram.Linear(40))
}
