// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

// Package api exposes the conversion pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dertuxmalwieder/ws2markdown/internal/convert"
	"github.com/dertuxmalwieder/ws2markdown/internal/wordstar"
	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	converter convert.Converter
	cfg       types.ConversionConfig
	maxBody   int64
	log       *slog.Logger
}

// NewServer creates and configures the HTTP handler. cfg supplies the
// defaults that query parameters can override per request.
func NewServer(conv convert.Converter, cfg types.ConversionConfig, maxBody int64, log *slog.Logger) *Server {
	if maxBody <= 0 {
		maxBody = types.DefaultMaxBodyBytes
	}
	s := &Server{
		converter: conv,
		cfg:       cfg,
		maxBody:   maxBody,
		log:       log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Post("/convert", s.handleConvert)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConvert converts the request body, a complete WordStar file
// including its header. Query parameters: format (markdown|html),
// frontmatter (bool), name (source name recorded in frontmatter).
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "document exceeds "+strconv.FormatInt(s.maxBody, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	res, err := s.converter.Convert(raw)
	if err != nil {
		if errors.Is(err, wordstar.ErrMalformedDocument) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Error("conversion failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "conversion failed")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	out, err := convert.Render(res, cfg, name)
	if err != nil {
		s.log.Error("render failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}

	if cfg.Format == types.FormatHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	w.Header().Set("X-Conversion-Warnings", strconv.Itoa(len(res.Warnings)))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

func (s *Server) requestConfig(r *http.Request) (types.ConversionConfig, error) {
	cfg := s.cfg
	q := r.URL.Query()
	if f := q.Get("format"); f != "" {
		cfg.Format = types.OutputFormat(f)
	}
	if fm := q.Get("frontmatter"); fm != "" {
		b, err := strconv.ParseBool(fm)
		if err != nil {
			return cfg, errors.New("frontmatter: must be a boolean")
		}
		cfg.Frontmatter = b
	}
	if cfg.Format == "" {
		cfg.Format = types.FormatMarkdown
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
