package mupdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// GoFitzExtractor reads the embedded text layer in-process through go-fitz.
type GoFitzExtractor struct{}

// NewGoFitzExtractor creates a new go-fitz based extractor
func NewGoFitzExtractor() *GoFitzExtractor {
	return &GoFitzExtractor{}
}

// Name identifies the extractor in logs.
func (g *GoFitzExtractor) Name() string { return "go-fitz" }

// ExtractText returns the text of every page, pages separated by a blank line.
// Pages that fail are logged and left empty.
func (g *GoFitzExtractor) ExtractText(ctx context.Context, doc []byte) (string, error) {
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer d.Close()

	var result strings.Builder
	for i := 0; i < d.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := d.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("Failed to extract text from page")
			continue
		}
		if i > 0 {
			result.WriteString("\n\n")
		}
		result.WriteString(text)
	}

	text := result.String()
	log.Debug().Int("pages", d.NumPage()).Int("chars", len(text)).Msg("Extracted text from PDF")
	return text, nil
}

// PageCount returns the number of pages MuPDF sees in doc.
func (g *GoFitzExtractor) PageCount(doc []byte) (int, error) {
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer d.Close()
	return d.NumPage(), nil
}
