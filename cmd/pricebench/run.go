package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gyeh/pricebench/internal/config"
	"github.com/gyeh/pricebench/internal/exitcode"
	"github.com/gyeh/pricebench/internal/logging"
	"github.com/gyeh/pricebench/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full benchmark pipeline",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&cfg.InputDir, "input", "", "Directory of source standard-charge files (required)")
	f.StringVar(&cfg.HospitalsPath, "hospitals", "", "Hospital registry CSV (required)")
	f.StringVar(&cfg.SourcesPath, "sources", "", "Source registry CSV mapping filenames to hospitals")
	f.StringVar(&cfg.ProceduresPath, "procedures", "", "Procedure catalog CSV (required)")
	f.StringVar(&cfg.PayerRulesPath, "payer-rules", "", "YAML payer rule overrides")
	f.StringVar(&cfg.FocusHospital, "focus-hospital", "", "Hospital to rank against the market (required)")
	f.StringVar(&cfg.OutputDir, "output", "", "Output directory for benchmark tables (required)")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Parallel source-file parsers")
	f.Float64Var(&cfg.OutlierIQRMult, "outlier-iqr-mult", 3.0, "Multiple of the p10-p90 spread beyond which a price is flagged")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("hospitals")
	_ = runCmd.MarkFlagRequired("procedures")
	_ = runCmd.MarkFlagRequired("focus-hospital")
	_ = runCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	reg, err := config.LoadRegistry(cfg.HospitalsPath, cfg.SourcesPath, cfg.ProceduresPath)
	if err != nil {
		log.Error().Err(err).Msg("registry load failed")
		os.Exit(exitcode.ValidationError)
	}

	summary, err := pipeline.Run(ctx, log, &cfg, reg)
	if err != nil {
		var pe *pipeline.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("run failed")
			switch {
			case errors.Is(pe.Err, pipeline.ErrNoParsableSources):
				os.Exit(exitcode.NoSourcesParsed)
			case pe.Phase == "config":
				os.Exit(exitcode.ValidationError)
			case pe.Phase == "write":
				os.Exit(exitcode.WriteError)
			default:
				os.Exit(exitcode.PipelineError)
			}
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitcode.PipelineError)
	}

	fmt.Printf("Run complete: %d files parsed, %d rows in scope, %d procedures benchmarked (%.1fs)\n",
		summary.FilesParsed, summary.RowsInScope,
		summary.OutputRows["procedure_benchmark"], summary.DurationTotal.Seconds())
	return nil
}
