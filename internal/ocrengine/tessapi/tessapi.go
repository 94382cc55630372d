// Package tessapi recognizes images in-process through libtesseract.
package tessapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/local/ocrdispatcher/internal/ocrengine"
)

// Engine creates one gosseract client per call. The library call itself
// cannot be interrupted; ctx is checked before and after it.
type Engine struct {
	ocrengine.Options
	clientFactory func() *gosseract.Client
}

// New returns an engine configured with the default flags for language.
func New(language string) *Engine {
	return &Engine{Options: ocrengine.DefaultOptions(language), clientFactory: gosseract.NewClient}
}

func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(e.PSM)); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if err := c.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ocrengine.ErrEmptyText
	}
	return text, nil
}
