// Package document paginates assembled reports into PDF files
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/bobmcallan/stockreport/internal/common"
	"github.com/bobmcallan/stockreport/internal/interfaces"
	"github.com/bobmcallan/stockreport/internal/models"
)

// Layout constants in points
const (
	pointsPerInch = 72.0
	pageMargin    = 1 * pointsPerInch

	fontFamily      = "Helvetica"
	headingFontSize = 14.0
	headingHeight   = 20.0
	bodyFontSize    = 10.0
	bodyLineHeight  = 14.0
	tableRowHeight  = 18.0
	gridLineWidth   = 1.0
	footerFontSize  = 8.0

	coverWidth          = 6 * pointsPerInch
	coverTitleHeight    = 3 * pointsPerInch
	coverSubtitleHeight = 1 * pointsPerInch
	coverTitleSize      = 28.0
	coverSubtitleSize   = 16.0
	minCoverTitleSize   = 14.0

	creator = "stockreport"
)

// pageSizes maps accepted page size names to the fpdf size string
var pageSizes = map[string]string{
	"letter":  "Letter",
	"legal":   "Legal",
	"tabloid": "Tabloid",
	"a3":      "A3",
	"a4":      "A4",
	"a5":      "A5",
}

// Writer renders ReportDocuments with fpdf core fonts
type Writer struct {
	pageSize string
	logger   *common.Logger
}

// NewWriter creates a writer for the named page size (Letter, Legal, A4, ...)
func NewWriter(pageSize string, logger *common.Logger) (*Writer, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if pageSize == "" {
		pageSize = "Letter"
	}
	size, ok := pageSizes[strings.ToLower(pageSize)]
	if !ok {
		return nil, fmt.Errorf("unsupported page size %q", pageSize)
	}
	return &Writer{pageSize: size, logger: logger}, nil
}

// Render lays out the document and writes the PDF to out.
// It returns the number of pages produced.
func (w *Writer) Render(doc *models.ReportDocument, out io.Writer) (int, error) {
	if doc == nil {
		return 0, errors.New("document is nil")
	}

	pdf := fpdf.New("P", "pt", w.pageSize, "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Subtitle, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetCreator(creator, true)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
		pdf.SetModificationDate(doc.GeneratedAt)
	}

	l := &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	// Page numbers on every page after the cover
	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetY(-pageMargin / 2)
		pdf.SetFont(fontFamily, "", footerFontSize)
		pdf.SetTextColor(0x66, 0x66, 0x66)
		pdf.CellFormat(0, footerFontSize, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	for i, block := range doc.Blocks() {
		if err := l.draw(block, i); err != nil {
			return 0, fmt.Errorf("block %d (%s): %w", i, block.Kind, err)
		}
		if pdf.Err() {
			return 0, fmt.Errorf("block %d (%s): %w", i, block.Kind, pdf.Error())
		}
	}

	pages := pdf.PageCount()
	if err := pdf.Output(out); err != nil {
		return 0, fmt.Errorf("pdf output failed: %w", err)
	}

	w.logger.Debug().Str("symbol", doc.Symbol).Int("pages", pages).Msg("Report rendered")
	return pages, nil
}

// Write renders the document in memory, then saves it to path, replacing any
// existing file. Nothing is written when rendering fails.
func (w *Writer) Write(doc *models.ReportDocument, path string) (*models.WriteResult, error) {
	if path == "" {
		return nil, errors.New("output path is required")
	}

	var buf bytes.Buffer
	pages, err := w.Render(doc, &buf)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Atomic write: write to temp file in the same directory, then rename
	tmpFile, err := os.CreateTemp(dir, ".tmp-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, err := tmpFile.Write(buf.Bytes())
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	w.logger.Info().Str("path", path).Int("pages", pages).Int("bytes", n).Msg("Report written")

	return &models.WriteResult{Path: path, Pages: pages, Bytes: int64(n)}, nil
}

// layout draws blocks onto a single fpdf document
type layout struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (l *layout) draw(b models.Block, index int) error {
	switch b.Kind {
	case models.BlockCover:
		return l.cover(b)
	case models.BlockHeading:
		l.heading(b.Text)
	case models.BlockParagraph:
		l.paragraph(b.Text)
	case models.BlockTable:
		return l.table(b.Table)
	case models.BlockImage:
		return l.image(b.Image, index)
	case models.BlockSpacer:
		l.pdf.Ln(b.Height)
	case models.BlockPageBreak:
		l.pdf.AddPage()
	default:
		return fmt.Errorf("unknown block kind %q", b.Kind)
	}
	return nil
}

func (l *layout) contentWidth() float64 {
	pageW, _ := l.pdf.GetPageSize()
	left, _, right, _ := l.pdf.GetMargins()
	return pageW - left - right
}

// ensureSpace starts a new page when h points do not fit above the bottom margin.
func (l *layout) ensureSpace(h float64) {
	_, pageH := l.pdf.GetPageSize()
	_, _, _, bottom := l.pdf.GetMargins()
	if l.pdf.GetY()+h > pageH-bottom {
		l.pdf.AddPage()
	}
}

func (l *layout) cover(b models.Block) error {
	fill, err := parseHexColor(b.Color, color{0x00, 0x7B, 0xFF})
	if err != nil {
		return err
	}

	pageW, _ := l.pdf.GetPageSize()
	width := min(coverWidth, l.contentWidth())
	x := (pageW - width) / 2

	l.pdf.SetFillColor(fill.r, fill.g, fill.b)
	l.pdf.SetTextColor(0xFF, 0xFF, 0xFF)

	textWidth := width - 2*bodyFontSize
	title := l.tr(b.Text)
	size, fits := l.fitFontSize(title, "B", coverTitleSize, textWidth)
	l.pdf.SetFont(fontFamily, "B", size)
	if fits {
		l.pdf.SetX(x)
		l.pdf.CellFormat(width, coverTitleHeight, title, "", 2, "CM", true, 0, "")
	} else {
		l.wrappedTitle(b.Text, x, width, textWidth, size)
	}

	l.pdf.SetFont(fontFamily, "", coverSubtitleSize)
	l.pdf.SetX(x)
	l.pdf.CellFormat(width, coverSubtitleHeight, l.tr(b.Subtitle), "", 1, "CM", true, 0, "")
	return nil
}

// fitFontSize shrinks size until text fits in width, stopping at the cover minimum.
// It reports whether the text fits at the returned size.
func (l *layout) fitFontSize(text, style string, size, width float64) (float64, bool) {
	for ; size >= minCoverTitleSize; size-- {
		l.pdf.SetFont(fontFamily, style, size)
		if l.pdf.GetStringWidth(text) <= width {
			return size, true
		}
	}
	return minCoverTitleSize, false
}

// wrappedTitle draws a title too wide for one line as centred lines
// inside the filled title panel.
func (l *layout) wrappedTitle(text string, x, width, textWidth, size float64) {
	lineH := size * 1.2
	lines := l.wrapWords(text, textWidth)
	if maxLines := int(coverTitleHeight / lineH); len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	top := l.pdf.GetY()
	l.pdf.Rect(x, top, width, coverTitleHeight, "F")
	l.pdf.SetY(top + (coverTitleHeight-lineH*float64(len(lines)))/2)
	for _, line := range lines {
		l.pdf.SetX(x)
		l.pdf.CellFormat(width, lineH, line, "", 2, "CM", false, 0, "")
	}
	l.pdf.SetXY(x, top+coverTitleHeight)
}

// wrapWords breaks text into translated lines no wider than width in the
// current font. A single word wider than width gets a line of its own.
func (l *layout) wrapWords(text string, width float64) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && l.pdf.GetStringWidth(l.tr(candidate)) > width {
			lines = append(lines, l.tr(current))
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, l.tr(current))
	}
	return lines
}

func (l *layout) heading(text string) {
	l.ensureSpace(headingHeight + tableRowHeight)
	l.pdf.SetFont(fontFamily, "B", headingFontSize)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.CellFormat(0, headingHeight, l.tr(text), "", 1, "L", false, 0, "")
}

func (l *layout) paragraph(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	l.pdf.SetFont(fontFamily, "", bodyFontSize)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.MultiCell(0, bodyLineHeight, l.tr(text), "", "L", false)
}

func (l *layout) table(t *models.Table) error {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}

	cols := 0
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}
	widths := l.columnWidths(t.ColWidths, cols)

	headerFill, err := parseOptionalColor(t.HeaderFill)
	if err != nil {
		return fmt.Errorf("header fill: %w", err)
	}
	bodyFill, err := parseOptionalColor(t.BodyFill)
	if err != nil {
		return fmt.Errorf("body fill: %w", err)
	}
	text, err := parseHexColor(t.TextColor, color{})
	if err != nil {
		return fmt.Errorf("text colour: %w", err)
	}
	headerText, err := parseHexColor(t.HeaderTextColor, text)
	if err != nil {
		return fmt.Errorf("header text colour: %w", err)
	}

	border := ""
	if t.Grid {
		border = "1"
		l.pdf.SetDrawColor(0, 0, 0)
		l.pdf.SetLineWidth(gridLineWidth)
	}

	headerSize := t.HeaderFontSize
	if headerSize <= 0 {
		headerSize = bodyFontSize
	}
	headerStyle := ""
	if t.HeaderBold {
		headerStyle = "B"
	}

	left, _, _, _ := l.pdf.GetMargins()
	for i, row := range t.Rows {
		l.ensureSpace(tableRowHeight)

		fill, textColor := bodyFill, text
		if i == 0 {
			fill, textColor = headerFill, headerText
			l.pdf.SetFont(fontFamily, headerStyle, headerSize)
		} else {
			l.pdf.SetFont(fontFamily, "", bodyFontSize)
		}
		if fill != nil {
			l.pdf.SetFillColor(fill.r, fill.g, fill.b)
		}
		l.pdf.SetTextColor(textColor.r, textColor.g, textColor.b)

		l.pdf.SetX(left)
		for c := 0; c < cols; c++ {
			cell := ""
			if c < len(row) {
				cell = l.tr(row[c])
			}
			l.pdf.CellFormat(widths[c], tableRowHeight, cell, border, 0, "LM", fill != nil, 0, "")
		}
		l.pdf.Ln(tableRowHeight)
	}
	return nil
}

// columnWidths converts inch widths to points, splitting the content width
// evenly when none are given and scaling down when they overflow.
func (l *layout) columnWidths(inches []float64, cols int) []float64 {
	available := l.contentWidth()
	widths := make([]float64, cols)

	if len(inches) != cols {
		for i := range widths {
			widths[i] = available / float64(cols)
		}
		return widths
	}

	total := 0.0
	for i, in := range inches {
		widths[i] = in * pointsPerInch
		total += widths[i]
	}
	if total > available {
		scale := available / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

func (l *layout) image(img *models.ChartImage, index int) error {
	if img == nil || len(img.PNG) == 0 {
		return errors.New("image block has no PNG data")
	}

	w := img.WidthInches * pointsPerInch
	h := img.HeightInches * pointsPerInch
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid image size %.2fx%.2fin", img.WidthInches, img.HeightInches)
	}
	if avail := l.contentWidth(); w > avail {
		h *= avail / w
		w = avail
	}

	name := fmt.Sprintf("chart-%d", index)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	l.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.PNG))
	if l.pdf.Err() {
		return fmt.Errorf("register image: %w", l.pdf.Error())
	}

	l.ensureSpace(h)
	pageW, _ := l.pdf.GetPageSize()
	y := l.pdf.GetY()
	l.pdf.ImageOptions(name, (pageW-w)/2, y, w, h, false, opts, 0, "")
	l.pdf.SetY(y + h)
	return nil
}

// Ensure Writer implements DocumentWriter
var _ interfaces.DocumentWriter = (*Writer)(nil)
