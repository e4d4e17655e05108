package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bobmcallan/stockreport/internal/models"
)

// Section headings, in document order. The table of contents lists the last three.
const (
	HeadingCover     = "Cover"
	HeadingContents  = "Table of Contents"
	HeadingQuote     = "Real-time Stock Data"
	HeadingCompany   = "Company Information"
	HeadingIndicator = "Technical Indicators"

	NoIndicatorsText = "No technical indicators available."
)

const (
	colorBlue  = "#007BFF"
	colorGreen = "#28A745"
	colorAmber = "#FFC107"
	colorWhite = "#FFFFFF"
	colorBlack = "#000000"
	colorBeige = "#F5F5DC"
)

// Spacing in points
const (
	headingGap  = 12.0
	sectionGap  = 24.0
	tableHeader = 12.0 // header font size
)

// tocEntries are fixed page numbers for the three content sections.
var tocEntries = []struct {
	label string
	page  int
}{
	{HeadingQuote, 2},
	{HeadingCompany, 3},
	{HeadingIndicator, 4},
}

// AssembleReport arranges fetched data and an optional chart into the
// five-section document. quote and profile are assumed non-empty; series and
// chart may be nil.
func AssembleReport(quote *models.Quote, profile *models.CompanyProfile, series *models.IndicatorSeries, chart *models.ChartImage, generatedAt time.Time) *models.ReportDocument {
	if quote == nil {
		quote = &models.Quote{}
	}
	if profile == nil {
		profile = &models.CompanyProfile{}
	}

	symbol := quote.Symbol
	if symbol == "" {
		symbol = profile.Symbol
	}

	title := fmt.Sprintf("Stock Report: %s (%s)", profile.Name, symbol)
	subtitle := fmt.Sprintf("Generated on %s", quote.LatestTradingDay)

	return &models.ReportDocument{
		Symbol:      symbol,
		Title:       title,
		Subtitle:    subtitle,
		GeneratedAt: generatedAt,
		Sections: []models.Section{
			coverSection(title, subtitle),
			contentsSection(),
			quoteSection(quote),
			companySection(profile),
			indicatorSection(series, chart),
		},
	}
}

func coverSection(title, subtitle string) models.Section {
	return models.Section{
		Heading: HeadingCover,
		Blocks: []models.Block{
			{Kind: models.BlockCover, Text: title, Subtitle: subtitle, Color: colorBlue},
			{Kind: models.BlockPageBreak},
		},
	}
}

func contentsSection() models.Section {
	rows := make([][]string, 0, len(tocEntries))
	for _, e := range tocEntries {
		rows = append(rows, []string{e.label, strconv.Itoa(e.page)})
	}

	return models.Section{
		Heading: HeadingContents,
		Blocks: []models.Block{
			{Kind: models.BlockHeading, Text: HeadingContents},
			{Kind: models.BlockSpacer, Height: headingGap},
			{Kind: models.BlockTable, Table: &models.Table{
				Rows:           rows,
				ColWidths:      []float64{4, 1},
				TextColor:      colorBlack,
				HeaderBold:     true,
				HeaderFontSize: 14,
			}},
			{Kind: models.BlockPageBreak},
		},
	}
}

func quoteSection(q *models.Quote) models.Section {
	rows := [][]string{
		{"Metric", "Value"},
		{"Symbol", q.Symbol},
		{"Price", q.Price},
		{"Change", q.Change},
		{"Change Percent", q.ChangePercent},
		{"Latest Trading Day", q.LatestTradingDay},
		{"Previous Close", q.PreviousClose},
	}

	return models.Section{
		Heading: HeadingQuote,
		Blocks: []models.Block{
			{Kind: models.BlockHeading, Text: HeadingQuote},
			{Kind: models.BlockSpacer, Height: headingGap},
			{Kind: models.BlockTable, Table: metricTable(rows, colorBlue)},
			{Kind: models.BlockSpacer, Height: sectionGap},
		},
	}
}

func companySection(p *models.CompanyProfile) models.Section {
	rows := [][]string{
		{"Metric", "Value"},
		{"Name", p.Name},
		{"Exchange", p.Exchange},
		{"Sector", p.Sector},
		{"Industry", p.Industry},
		{"Market Capitalization", p.MarketCapitalization},
		{"PE Ratio", p.PERatio},
		{"Dividend Yield", p.DividendYield},
		{"EPS", p.EPS},
	}

	return models.Section{
		Heading: HeadingCompany,
		Blocks: []models.Block{
			{Kind: models.BlockHeading, Text: HeadingCompany},
			{Kind: models.BlockSpacer, Height: headingGap},
			{Kind: models.BlockTable, Table: metricTable(rows, colorGreen)},
			{Kind: models.BlockSpacer, Height: headingGap},
			{Kind: models.BlockParagraph, Text: p.Description},
			{Kind: models.BlockSpacer, Height: sectionGap},
		},
	}
}

func indicatorSection(series *models.IndicatorSeries, chart *models.ChartImage) models.Section {
	blocks := []models.Block{
		{Kind: models.BlockHeading, Text: HeadingIndicator},
		{Kind: models.BlockSpacer, Height: headingGap},
	}

	if series.IsEmpty() {
		blocks = append(blocks, models.Block{Kind: models.BlockParagraph, Text: NoIndicatorsText})
		return models.Section{Heading: HeadingIndicator, Blocks: blocks}
	}

	if chart != nil {
		blocks = append(blocks,
			models.Block{Kind: models.BlockImage, Image: chart},
			models.Block{Kind: models.BlockSpacer, Height: headingGap},
		)
	}

	rows := make([][]string, 0, series.Len()+1)
	rows = append(rows, []string{"Timestamp", "SMA"})
	for _, p := range series.Newest() {
		rows = append(rows, []string{pointTimestamp(p), pointValue(p)})
	}

	blocks = append(blocks, models.Block{Kind: models.BlockTable, Table: &models.Table{
		Rows:           rows,
		HeaderFill:     colorAmber,
		TextColor:      colorBlack,
		HeaderBold:     true,
		HeaderFontSize: tableHeader,
		Grid:           true,
	}})

	return models.Section{Heading: HeadingIndicator, Blocks: blocks}
}

// metricTable styles a Metric/Value table with a coloured bold header over a beige body.
func metricTable(rows [][]string, headerFill string) *models.Table {
	return &models.Table{
		Rows:            rows,
		HeaderFill:      headerFill,
		HeaderTextColor: colorWhite,
		BodyFill:        colorBeige,
		TextColor:       colorBlack,
		HeaderBold:      true,
		HeaderFontSize:  tableHeader,
		Grid:            true,
	}
}

// pointTimestamp prefers the timestamp text as received from the API.
func pointTimestamp(p models.IndicatorPoint) string {
	if p.Raw != "" {
		return p.Raw
	}
	if p.Timestamp.Hour() == 0 && p.Timestamp.Minute() == 0 {
		return p.Timestamp.Format("2006-01-02")
	}
	return p.Timestamp.Format("2006-01-02 15:04")
}

func pointValue(p models.IndicatorPoint) string {
	if p.RawValue != "" {
		return p.RawValue
	}
	return strconv.FormatFloat(p.Value, 'f', 4, 64)
}
