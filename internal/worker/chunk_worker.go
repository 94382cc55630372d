package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/ocrdispatcher/internal/chunk"
	"github.com/local/ocrdispatcher/internal/metrics"
	"github.com/local/ocrdispatcher/internal/ocrengine"
	"github.com/local/ocrdispatcher/internal/raster"
)

// ChunkWorker rasterizes a page range and OCRs each page. A page that fails
// OCR is logged and skipped; a rasterization failure fails the chunk.
type ChunkWorker struct {
	Rasterizer raster.Rasterizer
	Engine     ocrengine.Engine
	// DPI defaults to raster.DPI.
	DPI int
	// Preprocess converts each page to contrast-stretched grayscale first.
	Preprocess bool
	// TempDir is where per-chunk image directories are created. Empty means os.TempDir().
	TempDir string
}

func (w *ChunkWorker) Process(ctx context.Context, t Task) (chunk.Result, error) {
	res := chunk.Result{Range: t.Range}
	start := time.Now()

	dir, err := os.MkdirTemp(w.TempDir, "ocrchunk-*")
	if err != nil {
		return res, fmt.Errorf("create chunk dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Str("doc_id", t.DocumentID).Msg("failed to remove chunk images")
		}
	}()

	dpi := w.DPI
	if dpi <= 0 {
		dpi = raster.DPI
	}
	paths, err := w.Rasterizer.Rasterize(ctx, t.DocumentPath, t.Range, dpi, dir)
	if err != nil {
		return res, fmt.Errorf("rasterize pages %s: %w", t.Range, err)
	}

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := t.Range.First + i

		if w.Preprocess {
			if err := raster.Preprocess(path); err != nil {
				log.Warn().Err(err).Str("doc_id", t.DocumentID).Int("page", page).Msg("preprocess failed, using raw image")
			}
		}

		text, err := w.Engine.Recognize(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			metrics.IncPageFailed()
			log.Warn().Err(err).Str("doc_id", t.DocumentID).Int("page", page).Msg("OCR failed for page, skipping")
			continue
		}
		res.Pages = append(res.Pages, text)
	}

	log.Debug().
		Str("doc_id", t.DocumentID).
		Int("first_page", t.Range.First).
		Int("last_page", t.Range.Last).
		Int("pages_ok", len(res.Pages)).
		Dur("duration", time.Since(start)).
		Msg("chunk OCR complete")
	return res, nil
}
