// Command datagen writes synthetic CRM, payment and verified-licenses
// exports for local development and pipeline testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/costomenu/reconcile/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users        = flag.Int("users", cfg.NumUsers, "number of CRM users to generate")
		transactions = flag.Int("transactions", cfg.NumTransactions, "number of payment rows to generate")
		matched      = flag.Float64("matched-share", cfg.MatchedShare, "probability a transaction references a generated user")
		greek        = flag.Float64("greek-share", cfg.GreekShare, "probability a payer name is emitted in Greek script")
		mojibake     = flag.Float64("mojibake-share", cfg.MojibakeShare, "probability a payment row arrives mis-decoded")
		duplicates   = flag.Float64("duplicate-share", cfg.DuplicateShare, "probability a row is emitted twice")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir    = flag.String("output-dir", "data", "directory to write the three export files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumUsers:        *users,
		NumTransactions: *transactions,
		MatchedShare:    clampProbability(*matched),
		GreekShare:      clampProbability(*greek),
		MojibakeShare:   clampProbability(*mojibake),
		DuplicateShare:  clampProbability(*duplicates),
		Seed:            *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d CRM rows, %d payment rows, %d verified rows into %s\n",
		len(dataset.CRM)-1, len(dataset.Payments)-1, len(dataset.Verified)-1, *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
