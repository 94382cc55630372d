package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file|url|s3://bucket/key]",
	Short: "Extract text from one document and print it",
	Example: `  # Print the text of a local PDF
  ocrdispatcher extract contract.pdf

  # Fetch from S3, write JSON with the quality verdict
  ocrdispatcher extract s3://docs/scan.pdf --json -o scan.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	extractCmd.Flags().Bool("json", false, "write the full result as JSON")
	extractCmd.Flags().String("doc-id", "", "document id for logs (default: random)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	asJSON, _ := cmd.Flags().GetBool("json")
	docID, _ := cmd.Flags().GetString("doc-id")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, name, err := a.fetcher.Fetch(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	log.Info().Str("file", name).Int("bytes", len(doc)).Msg("document loaded")

	res, err := a.pipeline.Run(ctx, doc, docID)
	if err != nil {
		return err
	}

	out := []byte(res.Text + "\n")
	if asJSON {
		out, err = json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		out = append(out, '\n')
	}
	if outputPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outputPath, out, 0o644)
}
