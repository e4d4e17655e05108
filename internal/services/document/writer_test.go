package document

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockreport/internal/models"
	"github.com/bobmcallan/stockreport/internal/services/chart"
	"github.com/bobmcallan/stockreport/internal/services/report"
)

func testReport(t *testing.T, withSeries bool) *models.ReportDocument {
	t.Helper()

	quote := &models.Quote{
		Symbol:           "AAPL",
		Price:            "150.00",
		Change:           "1.50",
		ChangePercent:    "1.0101%",
		LatestTradingDay: "2024-01-02",
		PreviousClose:    "148.50",
	}
	profile := &models.CompanyProfile{
		Symbol:      "AAPL",
		Name:        "Apple Inc",
		Exchange:    "NASDAQ",
		Sector:      "TECHNOLOGY",
		Industry:    "ELECTRONIC COMPUTERS",
		EPS:         "6.05",
		Description: "Apple Inc. designs, manufactures and markets smartphones, personal computers, tablets, wearables and accessories worldwide.",
	}

	var series *models.IndicatorSeries
	var img *models.ChartImage
	if withSeries {
		series = &models.IndicatorSeries{Symbol: "AAPL", Function: "SMA", Interval: "60min"}
		start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			ts := start.Add(time.Duration(i) * time.Hour)
			series.Points = append(series.Points, models.IndicatorPoint{
				Timestamp: ts,
				Raw:       ts.Format("2006-01-02 15:04"),
				Value:     149.5 + float64(i)*0.3,
			})
		}
		var err error
		img, err = chart.NewRenderer(nil).RenderIndicatorChart(series)
		require.NoError(t, err)
	}

	doc := report.AssembleReport(quote, profile, series, img, time.Date(2024, 1, 2, 17, 0, 0, 0, time.UTC))
	doc.Author = "stockreport"
	return doc
}

// readPages returns the plain text of each page with whitespace removed.
func readPages(t *testing.T, data []byte) []string {
	t.Helper()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		require.NoError(t, err)
		pages = append(pages, squash(text))
	}
	return pages
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter("Letter", nil)
	require.NoError(t, err)
	return w
}

func newTestLayout(t *testing.T) *layout {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddPage()
	return &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func TestRender_FullReport(t *testing.T) {
	w := newTestWriter(t)

	var buf bytes.Buffer
	pages, err := w.Render(testReport(t, true), &buf)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 3)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	text := readPages(t, buf.Bytes())
	require.Len(t, text, pages)
	assert.Contains(t, text[0], squash("Stock Report: Apple Inc (AAPL)"))
	assert.Contains(t, text[0], squash("Generated on 2024-01-02"))
	assert.Contains(t, text[1], squash("Table of Contents"))
	assert.Contains(t, text[1], squash("Real-time Stock Data"))

	body := strings.Join(text[2:], "")
	assert.Contains(t, body, squash("Company Information"))
	assert.Contains(t, body, squash("Technical Indicators"))
	assert.Contains(t, body, squash("2024-01-02 12:00"))
	assert.NotContains(t, body, squash(report.NoIndicatorsText))
}

func TestRender_NoIndicators(t *testing.T) {
	w := newTestWriter(t)

	var buf bytes.Buffer
	pages, err := w.Render(testReport(t, false), &buf)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 3)

	body := strings.Join(readPages(t, buf.Bytes())[2:], "")
	assert.Contains(t, body, squash(report.NoIndicatorsText))
}

func TestRender_LongCoverTitleWraps(t *testing.T) {
	title := "Stock Report: Berkshire Hathaway Energy Holdings International Consolidated Industries Incorporated (BRK.B)"
	doc := &models.ReportDocument{
		Sections: []models.Section{{Blocks: []models.Block{
			{Kind: models.BlockCover, Text: title, Subtitle: "Generated on 2024-01-02"},
		}}},
	}

	var buf bytes.Buffer
	_, err := newTestWriter(t).Render(doc, &buf)
	require.NoError(t, err)

	text := readPages(t, buf.Bytes())
	assert.Contains(t, text[0], squash(title))
	assert.Contains(t, text[0], squash("Generated on 2024-01-02"))
}

func TestWrapWords_FitsWidth(t *testing.T) {
	l := newTestLayout(t)
	l.pdf.SetFont(fontFamily, "B", minCoverTitleSize)

	width := 200.0
	lines := l.wrapWords("Berkshire Hathaway Energy Holdings International Consolidated", width)
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, l.pdf.GetStringWidth(line), width, line)
	}
	assert.Equal(t, "Berkshire Hathaway Energy Holdings International Consolidated", strings.Join(lines, " "))
}

func TestRender_NilDocument(t *testing.T) {
	w := newTestWriter(t)
	_, err := w.Render(nil, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRender_LongTablePaginates(t *testing.T) {
	rows := [][]string{{"Timestamp", "SMA"}}
	for i := 0; i < 120; i++ {
		rows = append(rows, []string{"2024-01-02 10:00", "150.0000"})
	}
	doc := &models.ReportDocument{
		Title: "Long",
		Sections: []models.Section{{
			Heading: "Rows",
			Blocks:  []models.Block{{Kind: models.BlockTable, Table: &models.Table{Rows: rows, Grid: true}}},
		}},
	}

	pages, err := newTestWriter(t).Render(doc, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Greater(t, pages, 1)
}

func TestRender_UnicodeText(t *testing.T) {
	doc := &models.ReportDocument{
		Sections: []models.Section{{Blocks: []models.Block{
			{Kind: models.BlockHeading, Text: "Société Générale – Überblick"},
			{Kind: models.BlockParagraph, Text: "Prices in €, dividends “quarterly”."},
		}}},
	}

	_, err := newTestWriter(t).Render(doc, &bytes.Buffer{})
	require.NoError(t, err)
}

func TestRender_InvalidColour(t *testing.T) {
	doc := &models.ReportDocument{
		Sections: []models.Section{{Blocks: []models.Block{
			{Kind: models.BlockTable, Table: &models.Table{Rows: [][]string{{"a"}}, HeaderFill: "#12"}},
		}}},
	}

	_, err := newTestWriter(t).Render(doc, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header fill")
}

func TestRender_ImageWithoutData(t *testing.T) {
	doc := &models.ReportDocument{
		Sections: []models.Section{{Blocks: []models.Block{
			{Kind: models.BlockImage, Image: &models.ChartImage{WidthInches: 5, HeightInches: 2.5}},
		}}},
	}

	_, err := newTestWriter(t).Render(doc, &bytes.Buffer{})
	require.Error(t, err)
}

func TestWrite_CreatesAndOverwrites(t *testing.T) {
	w := newTestWriter(t)
	path := filepath.Join(t.TempDir(), "AAPL_stock_report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	result, err := w.Write(testReport(t, true), path)
	require.NoError(t, err)
	assert.Equal(t, path, result.Path)
	assert.GreaterOrEqual(t, result.Pages, 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), result.Bytes)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Len(t, readPages(t, data), result.Pages)
}

func TestWrite_CreatesOutputDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "nested", "MSFT_stock_report.pdf")

	_, err := newTestWriter(t).Write(testReport(t, false), path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestWrite_RenderFailureLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AAPL_stock_report.pdf")
	doc := &models.ReportDocument{
		Sections: []models.Section{{Blocks: []models.Block{{Kind: "unknown"}}}},
	}

	_, err := newTestWriter(t).Write(doc, path)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestWrite_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "AAPL_stock_report.pdf")
	require.NoError(t, os.Mkdir(target, 0o755))

	_, err := newTestWriter(t).Write(testReport(t, false), target)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file should be cleaned up")
	assert.True(t, entries[0].IsDir())
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AAPL_stock_report.pdf")

	_, err := newTestWriter(t).Write(testReport(t, false), path)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "AAPL_stock_report.pdf", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWrite_EmptyPath(t *testing.T) {
	_, err := newTestWriter(t).Write(testReport(t, false), "")
	require.Error(t, err)
}

func TestNewWriter_PageSizes(t *testing.T) {
	for _, size := range []string{"", "Letter", "letter", "A4", "Legal"} {
		_, err := NewWriter(size, nil)
		assert.NoError(t, err, size)
	}
	_, err := NewWriter("B5", nil)
	assert.Error(t, err)
}

func TestRender_A4(t *testing.T) {
	w, err := NewWriter("A4", nil)
	require.NoError(t, err)

	pages, err := w.Render(testReport(t, true), &bytes.Buffer{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 3)
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#007BFF", color{})
	require.NoError(t, err)
	assert.Equal(t, color{0x00, 0x7B, 0xFF}, c)

	c, err = parseHexColor("f5f5dc", color{})
	require.NoError(t, err)
	assert.Equal(t, color{0xF5, 0xF5, 0xDC}, c)

	c, err = parseHexColor("", color{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, color{1, 2, 3}, c)

	_, err = parseHexColor("#GGGGGG", color{})
	assert.Error(t, err)

	fill, err := parseOptionalColor("")
	require.NoError(t, err)
	assert.Nil(t, fill)
}
