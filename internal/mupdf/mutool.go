package mupdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// MutoolExtractor shells out to `mutool draw -F txt`. It tolerates some
// damaged files that the bindings reject.
type MutoolExtractor struct {
	// Binary defaults to "mutool" on PATH.
	Binary string
	// TempDir holds the copy of the document passed to mutool.
	TempDir string
}


func (e *MutoolExtractor) Name() string { return "mutool" }

func (e *MutoolExtractor) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "mutool"
}

// IsAvailable checks if MuPDF tools are available
func (e *MutoolExtractor) IsAvailable() bool {
	_, err := exec.LookPath(e.binary())
	return err == nil
}

func (e *MutoolExtractor) ExtractText(ctx context.Context, doc []byte) (string, error) {
	f, err := os.CreateTemp(e.TempDir, "ocrdoc-*.pdf")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove temp document")
		}
	}()
	if _, err := f.Write(doc); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, e.binary(), "draw", "-q", "-F", "txt", path)
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("mutool failed: %s", bytes.TrimSpace(stderr.Bytes()))
		}
		return "", fmt.Errorf("failed to extract text with mutool: %w", err)
	}

	text := stdout.String()
	log.Debug().Int("chars", len(text)).Msg("Extracted text from PDF with mutool")
	return text, nil
}
