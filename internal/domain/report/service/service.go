// Package service orchestrates the report workflow: extract product rows from
// an uploaded PDF, guess sectors, and render the selected rows into a stored
// Excel export.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/exporter"
	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/parser"
	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/sector"
	"github.com/FACorreiaa/curva-abc-exporter/internal/metrics"
	"github.com/FACorreiaa/curva-abc-exporter/pkg/money"
	"github.com/FACorreiaa/curva-abc-exporter/pkg/storage"
)

// XLSXContentType is the MIME type exports are stored and served with.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	// ErrNoRows indicates the PDF was readable but contained no recognizable
	// product rows.
	ErrNoRows = errors.New("no product rows found in the report")

	// ErrMonthRequired indicates an export request without the month field.
	ErrMonthRequired = errors.New("month is required")

	// ErrExportNotFound indicates the requested export does not exist or has
	// already expired.
	ErrExportNotFound = errors.New("export not found")
)

// ReportRow is one aggregated product presented to the operator for review.
type ReportRow struct {
	ProductName string          `json:"product_name"`
	Sector      string          `json:"sector"`
	UnitPrice   *money.Money    `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Value       *money.Money    `json:"value"`
}

// AnalysisResult is the outcome of analyzing one uploaded report. Month and
// Week echo the form fields sent with the upload so the review UI can carry
// them into the export request.
type AnalysisResult struct {
	Rows        []ReportRow          `json:"rows"`
	Month       string               `json:"month,omitempty"`
	Week        string               `json:"week,omitempty"`
	SectorHint  string               `json:"sector_hint,omitempty"`
	PageCount   int                  `json:"page_count"`
	TotalLines  int                  `json:"total_lines"`
	ParsedLines int                  `json:"parsed_lines"`
	Skipped     []parser.SkippedLine `json:"skipped_lines,omitempty"`
}

// SelectedRow is one row the operator picked for export, carrying any sector
// correction made in the review step.
type SelectedRow struct {
	ProductName string          `json:"product_name"`
	Sector      string          `json:"sector"`
	Quantity    decimal.Decimal `json:"quantity"`
	Value       *money.Money    `json:"value"`
}

// ExportSelection is an export request: the period fields plus the rows to
// include.
type ExportSelection struct {
	Month string        `json:"month"`
	Week  string        `json:"week"`
	Rows  []SelectedRow `json:"rows"`
}

// Service runs the analyze and export operations.
type Service struct {
	logger     *slog.Logger
	classifier *sector.Classifier
	store      storage.Store
	metrics    *metrics.Metrics
}

// NewService creates the report service.
func NewService(logger *slog.Logger, classifier *sector.Classifier, store storage.Store, m *metrics.Metrics) *Service {
	return &Service{
		logger:     logger,
		classifier: classifier,
		store:      store,
		metrics:    m,
	}
}

// Analyze extracts the product rows of an uploaded PDF report and guesses a
// sector for each. When the document parses but no rows are recognized, the
// returned result still carries the skip diagnostics alongside ErrNoRows.
func (s *Service) Analyze(ctx context.Context, filename string, data []byte) (*AnalysisResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveAnalyzeDuration(time.Since(start).Seconds())
	}()

	extraction, err := parser.ExtractLines(data)
	if err != nil {
		s.metrics.ReportAnalyzed("error")
		s.logger.WarnContext(ctx, "failed to extract report text",
			slog.String("filename", filename),
			slog.Any("error", err))
		if errors.Is(err, parser.ErrNotPDF) {
			return nil, err
		}
		// A PDF that cannot be decoded surfaces as an empty extraction, not
		// as a server failure.
		return &AnalysisResult{}, ErrNoRows
	}

	parsed := parser.ParseLines(extraction.Lines)
	aggregated := parser.AggregateByName(parsed.Products)
	hint := sector.DocumentHint(extraction.Lines, filename)

	result := &AnalysisResult{
		Rows:        s.buildRows(aggregated, hint),
		SectorHint:  hint,
		PageCount:   extraction.PageCount,
		TotalLines:  parsed.TotalLines,
		ParsedLines: parsed.ParsedLines,
		Skipped:     parsed.Skipped,
	}

	s.metrics.LinesProcessed(parsed.ParsedLines, len(parsed.Skipped))

	if len(result.Rows) == 0 {
		s.metrics.ReportAnalyzed("empty")
		s.logger.WarnContext(ctx, "report contained no recognizable product rows",
			slog.String("filename", filename),
			slog.Int("total_lines", parsed.TotalLines),
			slog.Int("skipped_lines", len(parsed.Skipped)))
		return result, ErrNoRows
	}

	s.metrics.ReportAnalyzed("ok")
	s.logger.InfoContext(ctx, "report analyzed",
		slog.String("filename", filename),
		slog.Int("pages", extraction.PageCount),
		slog.Int("products", len(result.Rows)),
		slog.Int("parsed_lines", parsed.ParsedLines),
		slog.Int("skipped_lines", len(parsed.Skipped)),
		slog.String("sector_hint", hint))

	return result, nil
}

// buildRows attaches a sector guess to each aggregated product.
func (s *Service) buildRows(products []parser.ProductLine, hint string) []ReportRow {
	rows := make([]ReportRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, ReportRow{
			ProductName: p.Name,
			Sector:      s.classifier.Classify(p.Name, hint),
			UnitPrice:   p.UnitPrice,
			Quantity:    p.Quantity,
			Value:       p.Value,
		})
	}
	return rows
}

// Export renders the selected rows into a spreadsheet and stores it for
// download. Rows without a sector fall back to the unknown label.
func (s *Service) Export(ctx context.Context, sel *ExportSelection) (*storage.FileInfo, error) {
	if sel.Month == "" {
		return nil, ErrMonthRequired
	}

	export := &exporter.Export{
		Month: sel.Month,
		Week:  sel.Week,
		Rows:  make([]exporter.Row, 0, len(sel.Rows)),
	}
	for _, row := range sel.Rows {
		sec := row.Sector
		if sec == "" {
			sec = sector.Unknown
		}
		export.Rows = append(export.Rows, exporter.Row{
			Product:  row.ProductName,
			Sector:   sec,
			Quantity: row.Quantity,
			Value:    row.Value,
		})
	}

	var buf bytes.Buffer
	if err := exporter.Write(&buf, export); err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	info, err := s.store.Put(ctx, export.Filename(), XLSXContentType, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	s.metrics.ExportGenerated()
	s.logger.InfoContext(ctx, "export generated",
		slog.String("export_id", info.ID.String()),
		slog.String("filename", info.Name),
		slog.Int("rows", len(sel.Rows)),
		slog.Int64("size_bytes", info.Size))

	return info, nil
}

// OpenExport streams a previously generated export by ID.
func (s *Service) OpenExport(ctx context.Context, id uuid.UUID) (io.ReadCloser, *storage.FileInfo, error) {
	rc, info, err := s.store.Open(ctx, id)
	if err != nil {
		return nil, nil, ErrExportNotFound
	}
	return rc, info, nil
}
