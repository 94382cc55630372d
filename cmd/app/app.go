package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/ocrdispatcher/internal/capacity"
	"github.com/local/ocrdispatcher/internal/limiter"
	"github.com/local/ocrdispatcher/internal/mupdf"
	"github.com/local/ocrdispatcher/internal/ocrengine"
	"github.com/local/ocrdispatcher/internal/ocrengine/tessapi"
	"github.com/local/ocrdispatcher/internal/orchestrator"
	"github.com/local/ocrdispatcher/internal/pipeline"
	"github.com/local/ocrdispatcher/internal/raster"
	"github.com/local/ocrdispatcher/internal/source"
	"github.com/local/ocrdispatcher/internal/store"
	"github.com/local/ocrdispatcher/internal/worker"
)

// app holds the process-wide components shared by every request.
type app struct {
	pool     *worker.Pool
	pipeline *pipeline.Pipeline
	fetcher  *source.Fetcher
	status   *store.RedisStatus
}

func newEngine(name, language string) (ocrengine.Engine, error) {
	switch name {
	case "", "tesseract":
		return ocrengine.NewTesseract(language), nil
	case "gosseract":
		return tessapi.New(language), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", name)
	}
}

func (a *app) awsOptions() source.AWSOptions {
	return source.AWSOptions{
		Region:          cfg.Storage.AWSRegion,
		AccessKeyID:     cfg.Storage.AWSAccessKey,
		SecretAccessKey: cfg.Storage.AWSSecretKey,
	}
}

// newApp builds the pool once for the process lifetime.
func newApp(ctx context.Context, withStatus bool) (*app, error) {
	ras, err := raster.New(cfg.OCR.Rasterizer)
	if err != nil {
		return nil, err
	}
	eng, err := newEngine(cfg.OCR.Engine, cfg.OCR.Language)
	if err != nil {
		return nil, err
	}
	mode, err := limiter.ParseMode(cfg.OCR.Admission)
	if err != nil {
		return nil, err
	}

	workers := capacity.Estimate(cfg.OCR.Workers)
	pool := worker.NewPool(worker.Options{
		Capacity: workers,
		Processor: &worker.ChunkWorker{
			Rasterizer: ras,
			Engine:     eng,
			Preprocess: cfg.OCR.Preprocess,
			TempDir:    cfg.OCR.TempDir,
		},
		Limiter: limiter.New(limiter.Options{Capacity: workers, Mode: mode}),
	})
	log.Info().
		Int("capacity", workers).
		Str("engine", cfg.OCR.Engine).
		Str("rasterizer", cfg.OCR.Rasterizer).
		Str("admission", string(mode)).
		Dur("timeout", cfg.OCR.Timeout).
		Msg("OCR worker pool started")

	a := &app{pool: pool}

	var recorder pipeline.StatusRecorder
	if withStatus && cfg.Storage.RedisURL != "" {
		rs, err := store.NewRedisStatus(cfg.Storage.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("status store unavailable, continuing without it")
		} else {
			a.status = rs
			recorder = rs
		}
	}

	a.fetcher = &source.Fetcher{MaxBytes: cfg.Storage.MaxDocumentBytes}
	if s3, err := source.NewS3(ctx, a.awsOptions()); err != nil {
		log.Warn().Err(err).Msg("S3 source disabled")
	} else {
		a.fetcher.S3 = s3
	}

	a.pipeline = pipeline.New(pipeline.Options{
		Extractors: []pipeline.Extractor{mupdf.NewGoFitzExtractor(), &mupdf.MutoolExtractor{TempDir: cfg.OCR.TempDir}},
		CountPages: mupdf.PageCount,
		OCR: orchestrator.New(orchestrator.Options{
			Pool:    pool,
			Timeout: cfg.OCR.Timeout,
			TempDir: cfg.OCR.TempDir,
		}),
		Status: recorder,
	})
	return a, nil
}

func (a *app) Close() {
	a.pool.Close()
	if a.status != nil {
		_ = a.status.Close()
	}
}
