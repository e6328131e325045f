package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gyeh/pricebench/internal/detect"
	"github.com/gyeh/pricebench/internal/exitcode"
	"github.com/gyeh/pricebench/internal/logging"
	"github.com/gyeh/pricebench/internal/normalize"
	"github.com/gyeh/pricebench/internal/pipeline"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Probe source files and report detected formats (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.InputDir, "input", "", "Directory of source standard-charge files (required)")
	_ = planCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if err := cfg.ValidatePlan(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	candidates, skipped, err := pipeline.DiscoverSources(cfg.InputDir)
	if err != nil {
		log.Error().Err(err).Msg("source discovery failed")
		os.Exit(exitcode.ValidationError)
	}

	fmt.Println("=== pricebench plan ===")
	fmt.Printf("Input dir:  %s\n", cfg.InputDir)
	fmt.Printf("Candidates: %d\n", len(candidates))
	fmt.Printf("Skipped:    %d (zip with extracted sibling)\n", len(skipped))
	fmt.Println()

	byFormat := make(map[string]int)
	unrecognized := 0
	for _, path := range candidates {
		name := filepath.Base(path)

		st, err := os.Stat(path)
		if err != nil {
			fmt.Printf("  %-60s  ERROR  %v\n", name, err)
			unrecognized++
			continue
		}
		sha, err := normalize.FileHash(path)
		if err != nil {
			fmt.Printf("  %-60s  ERROR  %v\n", name, err)
			unrecognized++
			continue
		}

		format, err := detect.File(path)
		if err != nil {
			fmt.Printf("  %-60s  UNRECOGNIZED  %d bytes  %s\n", name, st.Size(), sha[:12])
			unrecognized++
			continue
		}
		byFormat[string(format)]++
		fmt.Printf("  %-60s  %-16s  %d bytes  %s\n", name, format, st.Size(), sha[:12])
	}

	fmt.Println()
	fmt.Println("Format distribution:")
	for format, count := range byFormat {
		fmt.Printf("  %-20s %d\n", format, count)
	}
	if unrecognized > 0 {
		fmt.Printf("  %-20s %d\n", "UNRECOGNIZED", unrecognized)
	}
	return nil
}
