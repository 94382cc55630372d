package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/local/ocrdispatcher/internal/config"
	logpkg "github.com/local/ocrdispatcher/internal/logger"
)

var version = "0.1.0"

var cfg cfgpkg.Config

var rootCmd = &cobra.Command{
	Use:     "ocrdispatcher",
	Short:   "Extract text from PDFs, falling back to parallel OCR when the text layer is poor",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = cfgpkg.FromEnv()
		if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
			cfg.OCR.Workers = workers
		}
		return logpkg.Init(logpkg.Options{
			Level:        cfg.Logging.Level,
			Pretty:       cfg.Logging.Pretty,
			File:         cfg.Logging.File,
			MaxSizeMB:    cfg.Logging.MaxSizeMB,
			MaxBackups:   cfg.Logging.MaxBackups,
			MaxAgeDays:   cfg.Logging.MaxAgeDays,
			Compress:     cfg.Logging.Compress,
			SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
			AxiomAPIKey:  cfg.Axiom.APIKey,
			AxiomOrgID:   cfg.Axiom.OrgID,
			AxiomDataset: cfg.Axiom.Dataset,
			AxiomFlush:   cfg.Axiom.FlushInterval,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logpkg.Close()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Int("workers", 0, "worker count override (default: derived from CPU limits)")
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
