package interfaces

import (
	"context"
	"io"

	"github.com/bobmcallan/stockreport/internal/models"
)

// ChartRenderer rasterizes indicator series
type ChartRenderer interface {
	// RenderIndicatorChart returns nil without error for an empty series
	RenderIndicatorChart(series *models.IndicatorSeries) (*models.ChartImage, error)
}

// DocumentWriter paginates an assembled report into a PDF
type DocumentWriter interface {
	// Render writes the PDF to w and returns the page count
	Render(doc *models.ReportDocument, w io.Writer) (int, error)

	// Write renders the PDF and saves it to path, overwriting any existing file
	Write(doc *models.ReportDocument, path string) (*models.WriteResult, error)
}

// ReportService runs the fetch, assemble and write pipeline
type ReportService interface {
	// GenerateReport builds the report for symbol and writes it to outputPath
	GenerateReport(ctx context.Context, symbol, outputPath string) (*models.ReportResult, error)
}
