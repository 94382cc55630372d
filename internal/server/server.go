// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/ocrdispatcher/internal/limiter"
	"github.com/local/ocrdispatcher/internal/metrics"
	"github.com/local/ocrdispatcher/internal/orchestrator"
	"github.com/local/ocrdispatcher/internal/pipeline"
	"github.com/local/ocrdispatcher/internal/source"
	"github.com/local/ocrdispatcher/internal/statuscheck"
	"github.com/local/ocrdispatcher/internal/store"
)

// maxUploadMemory is the multipart size kept in memory before spilling to disk.
const maxUploadMemory = 64 << 20

type Processor interface {
	Run(ctx context.Context, doc []byte, docID string) (pipeline.Result, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
}

type StatusReader interface {
	Get(ctx context.Context, docID string) (store.Status, bool, error)
}

type HealthChecker interface {
	Summary(ctx context.Context) statuscheck.Summary
}

type Options struct {
	Pipeline Processor
	Fetcher  Fetcher
	// Status and Health are optional.
	Status StatusReader
	Health HealthChecker
	// S3Bucket prefixes file_url values that carry no scheme.
	S3Bucket string
	// MaxUploadBytes bounds request bodies. Zero means source.DefaultMaxBytes.
	MaxUploadBytes int64
	// RequestTimeout bounds one extraction. Zero means no limit beyond the OCR timeout.
	RequestTimeout time.Duration
}

type Server struct {
	opts Options
}

func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = source.DefaultMaxBytes
	}
	return &Server{opts: opts}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/extract", s.handleExtract)
	mux.HandleFunc("/progress/", s.handleProgress)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", metrics.Handler())
}

type extractReq struct {
	FileURL string `json:"file_url"`
	DocID   string `json:"doc_id"`
}

type extractResp struct {
	DocID        string          `json:"doc_id"`
	Text         string          `json:"text"`
	Chars        int             `json:"chars"`
	Source       pipeline.Source `json:"source"`
	Pages        int             `json:"pages"`
	QualityScore int             `json:"quality_score"`
}

type errorResp struct {
	DocID string `json:"doc_id,omitempty"`
	Error string `json:"error"`
}

// handleExtract accepts either a multipart upload (field "file") or a JSON
// body naming a remote document, and answers with the extracted text.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	var (
		doc   []byte
		docID string
		err   error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		doc, docID, err = s.readUpload(w, r)
	} else {
		doc, docID, err = s.readRemote(ctx, w, r)
	}
	if err != nil {
		writeError(w, docID, err)
		return
	}
	if docID == "" {
		docID = uuid.NewString()
	}

	log.Info().Str("doc_id", docID).Int("bytes", len(doc)).Msg("extraction requested")
	res, err := s.opts.Pipeline.Run(ctx, doc, docID)
	if err != nil {
		log.Error().Err(err).Str("doc_id", docID).Msg("extraction failed")
		writeError(w, docID, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResp{
		DocID:        res.DocID,
		Text:         res.Text,
		Chars:        len([]rune(res.Text)),
		Source:       res.Source,
		Pages:        res.Pages,
		QualityScore: res.Quality.QualityScore,
	})
}

type requestError struct {
	code int
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+maxUploadMemory)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, "", badRequest("invalid multipart form")
	}
	docID := r.FormValue("doc_id")
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, docID, badRequest("missing file")
	}
	defer file.Close()
	doc, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, docID, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(doc)) > s.opts.MaxUploadBytes {
		return nil, docID, source.ErrTooLarge
	}
	if len(doc) == 0 {
		return nil, docID, badRequest("empty file")
	}
	return doc, docID, nil
}

func (s *Server) readRemote(ctx context.Context, w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	defer r.Body.Close()
	var req extractReq
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		return nil, "", badRequest("invalid json")
	}
	ref, err := s.resolveRef(req.FileURL)
	if err != nil {
		return nil, req.DocID, err
	}
	if s.opts.Fetcher == nil {
		return nil, req.DocID, &requestError{code: http.StatusNotImplemented, msg: "remote documents not configured"}
	}
	doc, _, err := s.opts.Fetcher.Fetch(ctx, ref)
	if err != nil {
		if errors.Is(err, source.ErrTooLarge) {
			return nil, req.DocID, err
		}
		return nil, req.DocID, &requestError{code: http.StatusBadGateway, msg: "fetch failed: " + err.Error()}
	}
	return doc, req.DocID, nil
}

// resolveRef only lets remote references through; bare keys live in the
// configured bucket.
func (s *Server) resolveRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", badRequest("missing file_url")
	case strings.HasPrefix(ref, "s3://"), strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref, nil
	case strings.Contains(ref, "://"):
		return "", badRequest("unsupported scheme in %q", ref)
	case s.opts.S3Bucket == "":
		return "", badRequest("file_url needs a scheme: no default bucket")
	default:
		return fmt.Sprintf("s3://%s/%s", s.opts.S3Bucket, strings.TrimPrefix(ref, "/")), nil
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/progress/")
	if id == "" {
		http.Error(w, "missing doc id", http.StatusBadRequest)
		return
	}
	if s.opts.Status == nil {
		http.Error(w, "status store disabled", http.StatusNotImplemented)
		return
	}
	st, ok, err := s.opts.Status.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":        id,
		"done":          st.Stage.Terminal(),
		"stage":         st.Stage,
		"pages":         st.Pages,
		"chunks":        st.Chunks,
		"quality_score": st.QualityScore,
		"chars":         st.Chars,
		"message":       st.Message,
		"start_time":    st.Start,
		"end_time":      st.End,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health == nil {
		http.Error(w, "health checks disabled", http.StatusNotImplemented)
		return
	}
	sum := s.opts.Health.Summary(r.Context())
	code := http.StatusOK
	if !sum.Ready() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, sum)
}

// statusFor maps pipeline errors onto HTTP codes.
func statusFor(err error) int {
	var reqErr *requestError
	var extErr *pipeline.ExtractionError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.code
	case errors.As(err, &extErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, source.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, limiter.ErrSaturated):
		return http.StatusServiceUnavailable
	case errors.Is(err, orchestrator.ErrOCRTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, docID string, err error) {
	code := statusFor(err)
	if code == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, code, errorResp{DocID: docID, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
