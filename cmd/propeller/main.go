// propeller tests for differences in cell type proportions between
// experimental groups, from a per-cell label CSV (one row per cell with
// cluster, sample, and group columns).
package main

import (
	"flag"
	"log"
	"os"

	"github.com/cellprops/propeller"
)

func main() {
	var cellsFile, outFile string
	var clusterCol, sampleCol, groupCol string
	var transform string
	var robust, trend, exact, hist bool

	flag.StringVar(&cellsFile, "cells", "", "Path to CSV with one row per cell (comma delimited, with a header)")
	flag.StringVar(&outFile, "out", "", "Path for the results CSV. If empty, results go to stdout.")
	flag.StringVar(&clusterCol, "cluster", "cluster", "Column name holding each cell's cluster label (case-insensitive)")
	flag.StringVar(&sampleCol, "sample", "sample", "Column name holding each cell's sample label (case-insensitive)")
	flag.StringVar(&groupCol, "group", "group", "Column name holding each cell's group label (case-insensitive)")
	flag.StringVar(&transform, "transform", "logit", "Variance-stabilizing transform: logit or asin")
	flag.BoolVar(&robust, "robust", true, "Use outlier-resistant empirical-Bayes shrinkage")
	flag.BoolVar(&trend, "trend", false, "Let the variance prior depend on mean transformed proportion")
	flag.BoolVar(&exact, "exact", false, "Test pooled counts exactly instead of fitting per-sample models (for designs with one sample per group)")
	flag.BoolVar(&hist, "hist", false, "Print a histogram of raw p-values")

	flag.Parse()

	if cellsFile == "" {
		log.Fatalln("Please provide -cells")
	}

	log.Println("Launched propeller")

	if err := runAll(cellsFile, outFile, clusterCol, sampleCol, groupCol, transform, robust, trend, exact, hist); err != nil {
		log.Fatalln(err)
	}
}

func runAll(cellsFile, outFile, clusterCol, sampleCol, groupCol, transform string, robust, trend, exact, hist bool) error {
	src := &cellCSV{
		Path:       cellsFile,
		ClusterCol: clusterCol,
		SampleCol:  sampleCol,
		GroupCol:   groupCol,
	}

	labels, err := src.CellLabels()
	if err != nil {
		return err
	}
	log.Println("Loaded", len(labels.Clusters), "cells from", cellsFile)

	var results []propeller.Result
	if exact {
		log.Println("Testing pooled counts per cluster")
		results, err = propeller.ExactCounts(labels.Clusters, labels.Groups, true)
	} else {
		opts := propeller.DefaultOptions()
		opts.Transform = propeller.Transform(transform)
		opts.Robust = robust
		opts.Trend = trend

		results, err = propeller.Run(labels.Clusters, labels.Samples, labels.Groups, opts)
	}
	if err != nil {
		return err
	}
	log.Println("Tested", len(results), "clusters")

	out := os.Stdout
	if outFile != "" {
		out, err = os.Create(outFile)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	if err := writeResults(results, out); err != nil {
		return err
	}

	if hist {
		printPValueHistogram(results)
	}

	return nil
}
