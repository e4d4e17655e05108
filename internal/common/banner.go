package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner for a report run.
func PrintBanner(w io.Writer, config *Config, symbol, outputPath string, logger *Logger) {
	version := GetVersion()
	build := GetBuild()
	commit := GetGitCommit()

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n\n", hr)
	fmt.Fprintf(w, "%s  STOCKREPORT%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s  Quote, Company Overview & SMA Report%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "\n%s\n\n", hr)

	kvPad := 14
	kvLines := [][2]string{
		{"Version", version},
		{"Build", build},
		{"Commit", commit},
		{"Environment", config.Environment},
		{"Symbol", symbol},
		{"Interval", config.Report.Interval},
		{"Output", outputPath},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("commit", commit).
		Str("environment", config.Environment).
		Str("symbol", symbol).
		Str("output", outputPath).
		Msg("Report run started")
}
