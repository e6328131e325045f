package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gyeh/pricebench/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "pricebench",
	Short: "Hospital price-transparency benchmark pipeline",
	Long:  "Parses hospital machine-readable standard-charge files, normalizes them into a single record set, and computes cross-hospital price benchmarks.",
}

func init() {
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
}
