package models

import "time"

// ChartImage is a rasterized chart ready to embed in a document.
type ChartImage struct {
	PNG          []byte  `json:"-"`
	WidthPx      int     `json:"width_px"`
	HeightPx     int     `json:"height_px"`
	WidthInches  float64 `json:"width_inches"`  // embed width
	HeightInches float64 `json:"height_inches"` // embed height
}

// BlockKind identifies a layout primitive in the report block sequence.
type BlockKind string

const (
	BlockCover     BlockKind = "cover"
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockTable     BlockKind = "table"
	BlockImage     BlockKind = "image"
	BlockSpacer    BlockKind = "spacer"
	BlockPageBreak BlockKind = "page_break"
)

// Block is a single layout primitive. Only the fields relevant to Kind are set.
type Block struct {
	Kind     BlockKind   `json:"kind"`
	Text     string      `json:"text,omitempty"`
	Subtitle string      `json:"subtitle,omitempty"` // cover only
	Color    string      `json:"color,omitempty"`    // cover panel fill, hex
	Height   float64     `json:"height,omitempty"`   // spacer height in points
	Table    *Table      `json:"table,omitempty"`
	Image    *ChartImage `json:"image,omitempty"`
}

// Table is a styled grid of cells. Rows[0] is the header row.
type Table struct {
	Rows            [][]string `json:"rows"`
	ColWidths       []float64  `json:"col_widths,omitempty"` // inches; empty means split available width evenly
	HeaderFill      string     `json:"header_fill,omitempty"`
	HeaderTextColor string     `json:"header_text_color,omitempty"`
	BodyFill        string     `json:"body_fill,omitempty"`
	TextColor       string     `json:"text_color,omitempty"`
	HeaderBold      bool       `json:"header_bold"`
	HeaderFontSize  float64    `json:"header_font_size,omitempty"`
	Grid            bool       `json:"grid"`
}

// Header returns the first row, or nil when the table is empty.
func (t *Table) Header() []string {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// BodyRows returns every row after the header.
func (t *Table) BodyRows() [][]string {
	if t == nil || len(t.Rows) < 2 {
		return nil
	}
	return t.Rows[1:]
}

// Section is a titled group of blocks. The heading is informational; the
// blocks themselves carry whatever heading text is rendered.
type Section struct {
	Heading string  `json:"heading"`
	Blocks  []Block `json:"blocks"`
}

// Tables returns the table blocks in this section in order.
func (s Section) Tables() []*Table {
	var out []*Table
	for _, b := range s.Blocks {
		if b.Kind == BlockTable && b.Table != nil {
			out = append(out, b.Table)
		}
	}
	return out
}

// Has reports whether the section contains a block of the given kind.
func (s Section) Has(kind BlockKind) bool {
	for _, b := range s.Blocks {
		if b.Kind == kind {
			return true
		}
	}
	return false
}

// ReportDocument is the assembled report, built once and never mutated.
type ReportDocument struct {
	Symbol      string    `json:"symbol"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Author      string    `json:"author,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// Blocks flattens the sections into the ordered block sequence.
func (d *ReportDocument) Blocks() []Block {
	if d == nil {
		return nil
	}
	var out []Block
	for _, s := range d.Sections {
		out = append(out, s.Blocks...)
	}
	return out
}

// WriteResult describes a written document.
type WriteResult struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
	Bytes int64  `json:"bytes"`
}

// ReportResult summarises a completed report run.
type ReportResult struct {
	Symbol          string        `json:"symbol"`
	Path            string        `json:"path"`
	Pages           int           `json:"pages"`
	Bytes           int64         `json:"bytes"`
	IndicatorPoints int           `json:"indicator_points"`
	ChartIncluded   bool          `json:"chart_included"`
	IndicatorError  string        `json:"indicator_error,omitempty"` // why the indicator section degraded
	Duration        time.Duration `json:"duration"`
}
