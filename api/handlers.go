package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"browserd/browser"
	"browserd/extract"
	"browserd/pkg/metrics"
	"browserd/search"

	"go.uber.org/zap"
)

const (
	errQueryRequired = "Query required"
	errURLRequired   = "URL required"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Browser bool   `json:"browser"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	alive := s.health.Alive()
	metrics.SetBrowserUp(alive)
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Browser: alive})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	logger := GetContextLogger(r.Context(), s.logger)

	var req search.SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, errQueryRequired)
		return
	}

	var resp *search.SearchResponse
	err := s.runner.Run(r.Context(), "search", func(ctx context.Context, page browser.Page) error {
		var err error
		resp, err = s.searcher.Search(ctx, page, req.Query)
		return err
	})
	if err != nil {
		logger.Error("Search error", zap.String("query", req.Query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	logger := GetContextLogger(r.Context(), s.logger)

	var req extract.ExtractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, errURLRequired)
		return
	}

	var content *extract.ExtractedContent
	err := s.runner.Run(r.Context(), "extract", func(ctx context.Context, page browser.Page) error {
		var err error
		content, err = s.extractor.Extract(ctx, page, req.URL)
		return err
	})
	if err != nil {
		logger.Error("Extract error", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, content)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	logger := GetContextLogger(r.Context(), s.logger)

	var req extract.ExtractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, errURLRequired)
		return
	}

	var article *extract.Article
	err := s.runner.Run(r.Context(), "article", func(ctx context.Context, page browser.Page) error {
		var err error
		article, err = s.reader.Read(ctx, page, req.URL)
		return err
	})
	if err != nil {
		logger.Error("Article error", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, article)
}

// decodeBody reads a JSON object into v. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// route registers h under pattern and counts its responses.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.RequestsTotal.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
	})
}
