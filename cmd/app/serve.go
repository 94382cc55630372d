package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/ocrdispatcher/internal/cleanup"
	"github.com/local/ocrdispatcher/internal/metrics"
	"github.com/local/ocrdispatcher/internal/server"
	"github.com/local/ocrdispatcher/internal/statuscheck"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP extraction service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "listen port (default: $PORT or 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		cfg.Server.Port = p
	}
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// leftovers from a previous crash
	cleanup.SweepTemps(cfg.OCR.TempDir, cfg.OCR.TempMaxAge)
	sweepStop := make(chan struct{})
	defer close(sweepStop)
	go cleanup.Run(cfg.OCR.TempDir, cfg.OCR.SweepInterval, cfg.OCR.TempMaxAge, sweepStop)

	checkOpts := statuscheck.Options{S3Bucket: cfg.Storage.S3Bucket, AWS: a.awsOptions()}
	if cfg.OCR.Rasterizer != "mutool" {
		checkOpts.InProcess = append(checkOpts.InProcess, "mutool")
	}
	if cfg.OCR.Engine == "gosseract" {
		checkOpts.InProcess = append(checkOpts.InProcess, "tesseract")
	}
	srvOpts := server.Options{
		Pipeline:       a.pipeline,
		Fetcher:        a.fetcher,
		S3Bucket:       cfg.Storage.S3Bucket,
		MaxUploadBytes: cfg.Storage.MaxDocumentBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if a.status != nil {
		checkOpts.Redis = a.status
		srvOpts.Status = a.status
	}
	srvOpts.Health = statuscheck.New(checkOpts)

	mux := http.NewServeMux()
	server.New(srvOpts).RegisterRoutes(mux)
	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("shutdown complete")
	return nil
}
