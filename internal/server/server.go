// Package server exposes the acquisition pipeline over HTTP: starting
// downloads, polling progress, serving stored images and purging state.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BrunoDobem/dowloadimg/pkg/config"
	errs "github.com/BrunoDobem/dowloadimg/pkg/errors"
	"github.com/BrunoDobem/dowloadimg/pkg/logger"
	"github.com/BrunoDobem/dowloadimg/pkg/scraper"
)

// Server is the HTTP front-end. All handlers are thin wrappers over the
// pipeline; none of them block on a running download.
type Server struct {
	pipeline *scraper.Pipeline
	logger   logger.Logger
	httpSrv  *http.Server
}

func New(cfg *config.ServerConfig, pipeline *scraper.Pipeline, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Server{
		pipeline: pipeline,
		logger:   log,
	}
	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler builds the route table. Exposed separately so tests can drive
// the server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /download", s.handleDownload)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /purge", s.handlePurge)
	mux.HandleFunc("GET /downloads/", s.handleAsset)
	mux.HandleFunc("GET /source", s.handleSource)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe blocks until ctx is cancelled, then shuts down
// gracefully and stops any in-flight run.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoWithFields("http server listening", map[string]interface{}{
			"addr": s.httpSrv.Addr,
		})
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.pipeline.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

type downloadRequest struct {
	Query    string `json:"query"`
	Quantity int    `json:"quantity"`
}

// parseDownloadRequest accepts a JSON body or classic form fields, so both
// API clients and plain HTML forms can start a run.
func parseDownloadRequest(r *http.Request) (downloadRequest, error) {
	var req downloadRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errs.Wrap(errs.ErrorTypeInvalidParams, "invalid request body", err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, errs.Wrap(errs.ErrorTypeInvalidParams, "invalid form data", err)
	}
	req.Query = r.FormValue("query")
	if raw := r.FormValue("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, errs.Wrap(errs.ErrorTypeInvalidParams, "quantity must be a number", err)
		}
		req.Quantity = n
	}
	return req, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	req, err := parseDownloadRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.pipeline.Start(req.Query, req.Quantity); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.InfoWithFields("download accepted", map[string]interface{}{
		"query":    req.Query,
		"quantity": req.Quantity,
	})
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "download started",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.pipeline.Progress())
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Purge(); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("downloads purged")
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "downloads cleared",
	})
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := path.Base(strings.TrimPrefix(r.URL.Path, "/downloads/"))
	if name == "." || name == "/" {
		s.writeError(w, errs.New(errs.ErrorTypeInvalidParams, "missing file name"))
		return
	}

	data, contentType, err := s.pipeline.Store().ReadAsset(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, errs.New(errs.ErrorTypeInvalidParams, "missing name parameter"))
		return
	}

	url, err := s.pipeline.Store().ResolveSourceURL(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"name": name,
		"url":  url,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errs.TypeOf(err) {
	case errs.ErrorTypeBusy:
		status = http.StatusConflict
	case errs.ErrorTypeInvalidParams:
		status = http.StatusBadRequest
	case errs.ErrorTypeNotFound:
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
