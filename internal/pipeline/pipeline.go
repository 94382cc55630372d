// Package pipeline decides, per document, between the embedded text layer
// and an OCR pass, and produces the final sanitized text.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/ocrdispatcher/internal/filetype"
	"github.com/local/ocrdispatcher/internal/metrics"
	"github.com/local/ocrdispatcher/internal/orchestrator"
	"github.com/local/ocrdispatcher/internal/quality"
	"github.com/local/ocrdispatcher/internal/sanitize"
	"github.com/local/ocrdispatcher/internal/store"
)

const (
	// substantialDirect is the direct-text length above which it is kept
	// next to the OCR output.
	substantialDirect = 100
	// shortResult triggers a warning on the final text.
	shortResult = 50
)

// OCRSeparator sits between the direct text and the OCR text when both are kept.
const OCRSeparator = "\n\n--- OCR TEXT ---\n\n"

// Source tells where the returned text came from.
type Source string

const (
	SourcePlain    Source = "plain"
	SourceDirect   Source = "direct"
	SourceOCR      Source = "ocr"
	SourceCombined Source = "combined"
	SourceFallback Source = "fallback"
)

type Extractor interface {
	Name() string
	ExtractText(ctx context.Context, doc []byte) (string, error)
}

type PageCounter func(doc []byte) (int, error)

type OCRRunner interface {
	ProcessWithOCR(ctx context.Context, doc []byte, totalPages int, docID string) (string, error)
	Chunks(totalPages int) int
}

type StatusRecorder interface {
	Set(ctx context.Context, docID string, st store.Status) error
}

type Options struct {
	// Extractors are tried in order until one succeeds.
	Extractors []Extractor
	CountPages PageCounter
	OCR        OCRRunner
	// Status is optional.
	Status StatusRecorder
}

type Pipeline struct {
	extractors []Extractor
	countPages PageCounter
	ocr        OCRRunner
	status     StatusRecorder
}

func New(opts Options) *Pipeline {
	return &Pipeline{
		extractors: opts.Extractors,
		countPages: opts.CountPages,
		ocr:        opts.OCR,
		status:     opts.Status,
	}
}

// Result is the outcome of one document.
type Result struct {
	DocID   string           `json:"doc_id"`
	Text    string           `json:"text"`
	Source  Source           `json:"source"`
	Pages   int              `json:"pages"`
	Quality quality.Analysis `json:"quality"`
}

// Process returns the final text for doc.
func (p *Pipeline) Process(ctx context.Context, doc []byte, docID string) (string, error) {
	res, err := p.Run(ctx, doc, docID)
	return res.Text, err
}

// Run walks a document through extraction, the quality gate and, when the
// gate says so, an OCR pass. An OCR timeout degrades to the direct text when
// there is any; every other OCR failure is returned.
func (p *Pipeline) Run(ctx context.Context, doc []byte, docID string) (Result, error) {
	if docID == "" {
		docID = uuid.NewString()
	}
	res := Result{DocID: docID}
	start := time.Now()
	p.record(ctx, docID, store.Status{Stage: store.StageExtracting, Start: &start})

	text, err := p.run(ctx, doc, &res)
	if err != nil {
		end := time.Now()
		p.record(ctx, docID, store.Status{Stage: store.StageFailed, Message: err.Error(), End: &end})
		return res, err
	}

	res.Text = sanitize.Text(text)
	if n := utf8.RuneCountInString(res.Text); n < shortResult {
		log.Warn().Str("doc_id", docID).Int("chars", n).Str("source", string(res.Source)).Msg("extracted text is very short")
	}

	end := time.Now()
	stage := store.StageDone
	if res.Source == SourceFallback {
		stage = store.StageFallback
	}
	chars := utf8.RuneCountInString(res.Text)
	p.record(ctx, docID, store.Status{Stage: stage, Chars: chars, End: &end})
	log.Info().
		Str("doc_id", docID).
		Str("source", string(res.Source)).
		Int("pages", res.Pages).
		Int("chars", chars).
		Dur("duration", end.Sub(start)).
		Msg("document processed")
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, doc []byte, res *Result) (string, error) {
	docID := res.DocID
	info := filetype.DetectBytes(doc)
	switch info.Kind {
	case filetype.KindText:
		res.Source = SourcePlain
		return string(doc), nil
	case filetype.KindPDF:
	default:
		return "", &ExtractionError{DocID: docID, Reason: "unsupported input " + info.MIMEType}
	}

	direct, err := p.extract(ctx, doc)
	if err != nil {
		return "", &ExtractionError{DocID: docID, Reason: "direct text", Err: err}
	}
	pages, err := p.countPages(doc)
	if err != nil {
		return "", &ExtractionError{DocID: docID, Reason: "page count", Err: err}
	}
	res.Pages = pages

	analysis := quality.Analyze(direct)
	res.Quality = analysis
	metrics.ObserveQuality(analysis.ShouldSkipOCR, analysis.QualityScore)
	p.record(ctx, docID, store.Status{Stage: store.StageQuality, Pages: pages, QualityScore: analysis.QualityScore})
	log.Info().
		Str("doc_id", docID).
		Int("pages", pages).
		Int("direct_chars", utf8.RuneCountInString(direct)).
		Int("quality_score", analysis.QualityScore).
		Bool("skip_ocr", analysis.ShouldSkipOCR).
		Msg("quality evaluated")

	if analysis.ShouldSkipOCR || pages == 0 {
		res.Source = SourceDirect
		return direct, nil
	}

	p.record(ctx, docID, store.Status{Stage: store.StageOCR, Chunks: p.ocr.Chunks(pages)})
	ocrText, err := p.ocr.ProcessWithOCR(ctx, doc, pages, docID)
	if err != nil {
		if errors.Is(err, orchestrator.ErrOCRTimeout) && strings.TrimSpace(direct) != "" {
			log.Warn().Err(err).Str("doc_id", docID).Msg("OCR timed out, falling back to direct text")
			res.Source = SourceFallback
			return direct, nil
		}
		return "", fmt.Errorf("ocr %s: %w", docID, err)
	}
	return combine(direct, ocrText, res), nil
}

func combine(direct, ocrText string, res *Result) string {
	direct = strings.TrimSpace(direct)
	ocrText = strings.TrimSpace(ocrText)
	switch {
	case utf8.RuneCountInString(direct) > substantialDirect && ocrText != "":
		res.Source = SourceCombined
		return direct + OCRSeparator + ocrText
	case ocrText != "":
		res.Source = SourceOCR
		return ocrText
	default:
		res.Source = SourceDirect
		return direct
	}
}

func (p *Pipeline) extract(ctx context.Context, doc []byte) (string, error) {
	var errs []error
	for _, e := range p.extractors {
		text, err := e.ExtractText(ctx, doc)
		if err == nil {
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		log.Warn().Err(err).Str("extractor", e.Name()).Msg("direct extraction failed, trying next extractor")
		errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
	}
	if len(errs) == 0 {
		return "", errors.New("no extractor configured")
	}
	return "", errors.Join(errs...)
}

func (p *Pipeline) record(ctx context.Context, docID string, st store.Status) {
	if p.status == nil {
		return
	}
	// terminal stages are written even after the caller gave up
	if err := p.status.Set(context.WithoutCancel(ctx), docID, st); err != nil {
		log.Warn().Err(err).Str("doc_id", docID).Str("stage", string(st.Stage)).Msg("failed to record status")
	}
}
