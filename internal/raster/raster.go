// Package raster renders PDF page ranges to per-page PNG files for OCR.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/local/ocrdispatcher/internal/chunk"
)

// DPI is the fixed render resolution used for OCR input.
const DPI = 150

// killGrace bounds how long a killed subprocess may hold its output pipes.
const killGrace = 2 * time.Second

// Rasterizer writes one image per page of pages into outDir and returns the
// paths in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, pages chunk.PageRange, dpi int, outDir string) ([]string, error)
}

// PagePath is the file name used for a rendered page.
func PagePath(outDir string, page int) string {
	return filepath.Join(outDir, fmt.Sprintf("page-%d.png", page))
}

// Fitz renders in-process through MuPDF bindings.
type Fitz struct{}

func (Fitz) Rasterize(ctx context.Context, pdfPath string, pages chunk.PageRange, dpi int, outDir string) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if pages.First < 1 || pages.Last > doc.NumPage() {
		return nil, fmt.Errorf("pages %s out of range (document has %d pages)", pages, doc.NumPage())
	}

	paths := make([]string, 0, pages.Len())
	for p := pages.First; p <= pages.Last; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// go-fitz uses 0-based indexing
		img, err := doc.ImageDPI(p-1, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", p, err)
		}
		path := PagePath(outDir, p)
		if err := writePNG(path, img); err != nil {
			return nil, fmt.Errorf("failed to write page %d: %w", p, err)
		}
		paths = append(paths, path)
	}

	log.Debug().
		Str("pages", pages.String()).
		Int("dpi", dpi).
		Str("rasterizer", "fitz").
		Msg("rendered page range")
	return paths, nil
}

// Mutool shells out to `mutool draw`. The process is killed when ctx ends.
type Mutool struct {
	// Binary defaults to "mutool" on PATH.
	Binary string
}

func (m Mutool) binary() string {
	if m.Binary != "" {
		return m.Binary
	}
	return "mutool"
}

// Available reports whether the binary can be found.
func (m Mutool) Available() bool {
	_, err := exec.LookPath(m.binary())
	return err == nil
}

func (m Mutool) Rasterize(ctx context.Context, pdfPath string, pages chunk.PageRange, dpi int, outDir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, m.binary(),
		"draw", "-q",
		"-r", strconv.Itoa(dpi),
		"-o", filepath.Join(outDir, "page-%d.png"),
		pdfPath,
		fmt.Sprintf("%d-%d", pages.First, pages.Last),
	)
	cmd.WaitDelay = killGrace
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("mutool killed for pages %s: %w", pages, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("mutool failed for pages %s: %s", pages, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, fmt.Errorf("failed to run mutool: %w", err)
	}

	paths := make([]string, 0, pages.Len())
	for p := pages.First; p <= pages.Last; p++ {
		path := PagePath(outDir, p)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("mutool produced no image for page %d: %w", p, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// New returns the rasterizer registered under name ("fitz" or "mutool").
func New(name string) (Rasterizer, error) {
	switch name {
	case "", "fitz":
		return Fitz{}, nil
	case "mutool":
		return Mutool{}, nil
	default:
		return nil, fmt.Errorf("unknown rasterizer %q", name)
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
