package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brunobiangulo/doctext"
	"github.com/brunobiangulo/doctext/staging"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type handler struct {
	engine  *doctext.Engine
	cfg     doctext.ServerConfig
	logger  *slog.Logger
	allowed map[string]bool
	exts    []string
}

func newHandler(e *doctext.Engine, cfg doctext.ServerConfig, logger *slog.Logger) *handler {
	exts := e.AllowedExtensions()
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[ext] = true
	}
	return &handler{engine: e, cfg: cfg, logger: logger, allowed: allowed, exts: exts}
}

func (h *handler) routes() http.Handler {
	r := chi.NewRouter()

	// Middleware chain: recovery -> cors -> logging -> routes
	r.Use(recoveryMiddleware(h.logger))
	r.Use(corsMiddleware(h.cfg.CORSOrigins))
	r.Use(logMiddleware(h.logger))

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Post("/extract-text", h.handleExtractText)
	return r
}

// GET /
func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "SmartStudy Text Extraction API",
		"status":  "running",
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// POST /extract-text
// Accepts one or more multipart uploads in the "files" field.
func (h *handler) handleExtractText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Upload too large (max %d bytes)", h.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	// Parts without a filename are parsed as plain values.
	if len(r.MultipartForm.Value["files"]) > 0 {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > h.cfg.MaxFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many files: %d (max %d)", len(files), h.cfg.MaxFiles))
		return
	}

	// Validate file types
	for _, fh := range files {
		if staging.SafeName(fh.Filename) == "" {
			writeError(w, http.StatusBadRequest, "Invalid filename")
			return
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !h.allowed[ext] {
			writeError(w, http.StatusBadRequest, fmt.Sprintf(
				"Unsupported file type: %s. Supported types: %s", ext, strings.Join(h.exts, ", ")))
			return
		}
	}

	batch, err := staging.New(h.cfg.TempDir, h.logger)
	if err != nil {
		h.logger.Error("creating staging batch", "error", err)
		writeError(w, http.StatusInternalServerError, "Text extraction failed: "+err.Error())
		return
	}
	defer batch.Cleanup()

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("opening upload", "filename", fh.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "Text extraction failed: "+err.Error())
			return
		}
		_, err = batch.Stage(fh.Filename, f)
		f.Close()
		if err != nil {
			h.logger.Error("staging upload", "filename", fh.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, "Text extraction failed: "+err.Error())
			return
		}
	}

	text, err := h.engine.ExtractText(r.Context(), batch.Paths())
	if errors.Is(err, doctext.ErrNoTextExtracted) {
		writeError(w, http.StatusBadRequest, "No text could be extracted from the uploaded files")
		return
	}
	if err != nil {
		h.logger.Error("extraction error", "batch", batch.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Text extraction failed: "+err.Error())
		return
	}

	h.logger.Info("extracted text", "batch", batch.ID, "files", len(files), "chars", len(text))
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
