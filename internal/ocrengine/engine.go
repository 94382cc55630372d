// Package ocrengine runs an OCR engine over a single page image.
package ocrengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyText is returned when the engine ran but recognized nothing.
var ErrEmptyText = errors.New("ocr produced no text")

// Engine recognizes the text of one image. Any error is treated by callers
// as a skippable page failure.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Options are the fixed recognition settings passed to every invocation.
type Options struct {
	Language string
	// PSM is the page segmentation mode.
	PSM int
	// OEM is the engine mode (1 = LSTM only).
	OEM int
}

// DefaultOptions returns automatic page segmentation with the LSTM engine.
func DefaultOptions(language string) Options {
	if language == "" {
		language = "eng"
	}
	return Options{Language: language, PSM: 3, OEM: 1}
}

const killGrace = 2 * time.Second

// Tesseract runs the tesseract CLI, reading recognized text from stdout.
// The process is killed when ctx ends.
type Tesseract struct {
	// Binary defaults to "tesseract" on PATH.
	Binary string
	Options
}

// NewTesseract builds a CLI engine with default flags for language.
func NewTesseract(language string) *Tesseract {
	return &Tesseract{Options: DefaultOptions(language)}
}

func (t *Tesseract) binary() string {
	if t.Binary != "" {
		return t.Binary
	}
	return "tesseract"
}

// Available reports whether the binary can be found.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.binary())
	return err == nil
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, t.binary(),
		imagePath, "stdout",
		"-l", t.Language,
		"--psm", strconv.Itoa(t.PSM),
		"--oem", strconv.Itoa(t.OEM),
	)
	cmd.WaitDelay = killGrace
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("tesseract killed: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("tesseract exited with %d: %s", exitErr.ExitCode(), bytes.TrimSpace(stderr.Bytes()))
		}
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
