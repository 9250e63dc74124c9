package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/exporter"
	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/parser"
	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/sector"
	"github.com/FACorreiaa/curva-abc-exporter/pkg/money"
	"github.com/FACorreiaa/curva-abc-exporter/pkg/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	classifier := sector.NewClassifier(sector.DefaultTable(), 80)

	return NewService(logger, classifier, store, nil)
}

func TestAnalyze_RejectsNonPDF(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Analyze(context.Background(), "report.pdf", []byte("not a pdf"))

	require.ErrorIs(t, err, parser.ErrNotPDF)
}

func TestAnalyze_CorruptPDFSurfacesAsEmpty(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Analyze(context.Background(), "report.pdf", []byte("%PDF-1.4\ngarbage"))

	require.ErrorIs(t, err, ErrNoRows)
	require.NotNil(t, result)
	assert.Empty(t, result.Rows)
}

func TestBuildRows_AttachesSectorGuesses(t *testing.T) {
	svc := newTestService(t)

	products := []parser.ProductLine{
		{
			Name:      "QUEIJO MUSSARELA KG",
			UnitPrice: money.New(3990),
			Quantity:  decimal.RequireFromString("12.5"),
			Value:     money.New(49875),
		},
		{
			Name:      "PRODUTO SEM KEYWORD",
			UnitPrice: money.New(1000),
			Quantity:  decimal.RequireFromString("1"),
			Value:     money.New(1000),
		},
	}

	rows := svc.buildRows(products, "MERCEARIA")

	require.Len(t, rows, 2)
	assert.Equal(t, "FRIOS", rows[0].Sector)
	assert.Equal(t, "MERCEARIA", rows[1].Sector, "unmatched names take the document hint")
	assert.Equal(t, "QUEIJO MUSSARELA KG", rows[0].ProductName)
	assert.Equal(t, "498.75", rows[0].Value.String())
}

func TestBuildRows_UnknownWithoutHint(t *testing.T) {
	svc := newTestService(t)

	rows := svc.buildRows([]parser.ProductLine{
		{Name: "ZZZZ WWWW", UnitPrice: money.New(100), Value: money.New(100)},
	}, "")

	require.Len(t, rows, 1)
	assert.Equal(t, sector.Unknown, rows[0].Sector)
}

func TestExport_StoresSpreadsheet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sel := &ExportSelection{
		Month: "08/2025",
		Week:  "2",
		Rows: []SelectedRow{
			{
				ProductName: "QUEIJO MUSSARELA KG",
				Sector:      "FRIOS",
				Quantity:    decimal.RequireFromString("12.5"),
				Value:       money.New(49875),
			},
			{
				ProductName: "PRODUTO CORRIGIDO",
				Quantity:    decimal.RequireFromString("1"),
				Value:       money.New(1000),
			},
		},
	}

	info, err := svc.Export(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, "produtos_08-2025.xlsx", info.Name)
	assert.Equal(t, XLSXContentType, info.ContentType)
	assert.Positive(t, info.Size)

	rc, opened, err := svc.OpenExport(ctx, info.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, info.ID, opened.ID)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exporter.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exporter.Header, rows[0])

	// The row without a sector falls back to the unknown label.
	assert.Equal(t, "PRODUTO CORRIGIDO", rows[2][0])
	assert.Equal(t, sector.Unknown, rows[2][1])
}

func TestExport_MonthRequired(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Export(context.Background(), &ExportSelection{Week: "1"})

	require.ErrorIs(t, err, ErrMonthRequired)
}

func TestOpenExport_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.OpenExport(context.Background(), uuid.New())

	require.ErrorIs(t, err, ErrExportNotFound)
}
