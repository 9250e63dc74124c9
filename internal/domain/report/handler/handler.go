// Package handler exposes the report workflow over HTTP: upload and analyze a
// PDF report, then export the reviewed rows as a spreadsheet.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/parser"
	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/service"
)

// uploadFieldName is the multipart form field carrying the PDF.
const uploadFieldName = "file"

// Handler serves the report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *service.Service
	limiter   *rate.Limiter
	maxUpload int64
	baseURL   string
}

// NewHandler creates the report HTTP handler. maxUpload caps the accepted PDF
// size in bytes; limiter throttles the analyze endpoint, which does the heavy
// PDF work.
func NewHandler(logger *slog.Logger, svc *service.Service, limiter *rate.Limiter, maxUpload int64, baseURL string) *Handler {
	return &Handler{
		logger:    logger,
		service:   svc,
		limiter:   limiter,
		maxUpload: maxUpload,
		baseURL:   baseURL,
	}
}

// Routes mounts the report endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(h.throttle).Post("/reports/analyze", h.AnalyzeReport)
	r.Post("/exports", h.CreateExport)
	r.Get("/exports/{id}", h.DownloadExport)
	return r
}

// AnalyzeReport accepts a multipart PDF upload and returns the extracted
// product rows with sector guesses and skip diagnostics.
func (h *Handler) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUpload))
			return
		}
		h.writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUpload))
			return
		}
		h.writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	result, err := h.service.Analyze(r.Context(), header.Filename, data)
	switch {
	case errors.Is(err, parser.ErrNotPDF):
		h.writeError(w, http.StatusBadRequest, "uploaded file is not a PDF document")
		return
	case errors.Is(err, service.ErrNoRows):
		// Keep the diagnostics so the operator can see why nothing parsed.
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":         "no product rows found in the report",
			"total_lines":   result.TotalLines,
			"skipped_lines": result.Skipped,
		})
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "analyze failed",
			slog.String("filename", header.Filename),
			slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "failed to analyze report")
		return
	}

	result.Month = r.FormValue("month")
	result.Week = r.FormValue("week")
	h.writeJSON(w, http.StatusOK, result)
}

// exportResponse is the body returned after an export is generated.
type exportResponse struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// CreateExport renders the selected rows into a spreadsheet and returns its
// download location.
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var sel service.ExportSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	info, err := h.service.Export(r.Context(), &sel)
	switch {
	case errors.Is(err, service.ErrMonthRequired):
		h.writeError(w, http.StatusBadRequest, "month is required")
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "export failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "failed to generate export")
		return
	}

	h.writeJSON(w, http.StatusCreated, exportResponse{
		ID:          info.ID.String(),
		Filename:    info.Name,
		Size:        info.Size,
		DownloadURL: fmt.Sprintf("%s/v1/exports/%s", h.baseURL, info.ID),
	})
}

// DownloadExport streams a generated spreadsheet.
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid export id")
		return
	}

	rc, info, err := h.service.OpenExport(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "export not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted",
			slog.String("export_id", id.String()),
			slog.Any("error", err))
	}
}

// throttle rejects analyze requests beyond the configured rate.
func (h *Handler) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			h.writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
