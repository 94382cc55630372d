package mupdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// PageCount reads the page count from the PDF structure with pdfcpu. When
// pdfcpu cannot parse the file, MuPDF's count is used instead.
func PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), nil)
	if err == nil {
		return n, nil
	}
	log.Debug().Err(err).Msg("pdfcpu page count failed, falling back to go-fitz")

	n, ferr := NewGoFitzExtractor().PageCount(doc)
	if ferr != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}
