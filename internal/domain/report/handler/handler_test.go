package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/sector"
	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/service"
	"github.com/FACorreiaa/curva-abc-exporter/pkg/storage"
)

func newTestHandler(t *testing.T, limiter *rate.Limiter) *Handler {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	classifier := sector.NewClassifier(sector.DefaultTable(), 80)
	svc := service.NewService(logger, classifier, store, nil)

	return NewHandler(logger, svc, limiter, 1<<20, "http://localhost:8080")
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reports/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalyzeReport_MissingFile(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/reports/analyze", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file")
}

func TestAnalyzeReport_NotPDF(t *testing.T) {
	h := newTestHandler(t, nil)

	req := uploadRequest(t, "file", "report.pdf", []byte("plain text, not a pdf"))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a PDF")
}

func TestAnalyzeReport_CorruptPDF(t *testing.T) {
	h := newTestHandler(t, nil)

	req := uploadRequest(t, "file", "report.pdf", []byte("%PDF-1.4\ngarbage"))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "no product rows")
}

func TestAnalyzeReport_WrongField(t *testing.T) {
	h := newTestHandler(t, nil)

	req := uploadRequest(t, "document", "report.pdf", []byte("%PDF-1.4"))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeReport_Throttled(t *testing.T) {
	// Burst of one and no refill: the second request must be rejected.
	h := newTestHandler(t, rate.NewLimiter(rate.Limit(0), 1))
	router := h.Routes()

	first := httptest.NewRecorder()
	router.ServeHTTP(first, uploadRequest(t, "file", "a.pdf", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, uploadRequest(t, "file", "a.pdf", []byte("x")))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestCreateExport_AndDownload(t *testing.T) {
	h := newTestHandler(t, nil)
	router := h.Routes()

	body := `{
		"month": "08/2025",
		"week": "2",
		"rows": [
			{"product_name": "QUEIJO MUSSARELA KG", "sector": "FRIOS", "quantity": "12.5", "value": {"amount": 49875, "decimal": "498.75"}}
		]
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID          string `json:"id"`
		Filename    string `json:"filename"`
		Size        int64  `json:"size"`
		DownloadURL string `json:"download_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "produtos_08-2025.xlsx", resp.Filename)
	assert.Positive(t, resp.Size)
	assert.Equal(t, "http://localhost:8080/v1/exports/"+resp.ID, resp.DownloadURL)

	download := httptest.NewRecorder()
	router.ServeHTTP(download, httptest.NewRequest(http.MethodGet, "/exports/"+resp.ID, nil))

	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, service.XLSXContentType, download.Header().Get("Content-Type"))
	assert.Contains(t, download.Header().Get("Content-Disposition"), "produtos_08-2025.xlsx")
	assert.Equal(t, int(resp.Size), download.Body.Len())
}

func TestCreateExport_MonthRequired(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader(`{"week": "1"}`))
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "month")
}

func TestCreateExport_InvalidJSON(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader("{"))
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadExport_InvalidID(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadExport_NotFound(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/0b40e496-7f3c-4b0e-9a36-1a0f4f7b8f11", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
