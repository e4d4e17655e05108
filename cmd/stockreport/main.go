package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobmcallan/stockreport/internal/app"
	"github.com/bobmcallan/stockreport/internal/common"
)

var (
	configPath  = flag.String("config", "", "Configuration file path (default: STOCKREPORT_CONFIG, then stockreport.toml)")
	symbol      = flag.String("symbol", "", "Ticker symbol (overrides config, default AAPL)")
	interval    = flag.String("interval", "", "SMA interval: 1min, 5min, 15min, 30min, 60min, daily, weekly, monthly")
	outputPath  = flag.String("out", "", "Output PDF path (default <output_dir>/<SYMBOL>_stock_report.pdf)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	// Handle version flag
	if *showVersion {
		common.LoadVersionFromFile()
		fmt.Println(common.GetFullVersion())
		return app.ExitOK
	}

	a, err := app.NewApp(*configPath, app.WithSymbol(*symbol), app.WithInterval(*interval))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		return app.ExitConfig
	}

	out := a.OutputPath(*outputPath)
	common.PrintBanner(os.Stdout, a.Config, a.Config.Report.Symbol, out, a.Logger)

	// Interrupt aborts the run before the file is written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := a.Run(ctx, out)
	if err != nil {
		a.Logger.Error().Err(err).Str("symbol", a.Config.Report.Symbol).Msg("Report generation failed")
		fmt.Fprintf(os.Stderr, "Report generation failed: %v\n", err)
		return app.ExitCode(err)
	}

	if result.IndicatorError != "" {
		fmt.Printf("Technical indicators unavailable: %s\n", result.IndicatorError)
	}
	fmt.Printf("PDF report generated: %s (%d pages)\n", result.Path, result.Pages)
	return app.ExitOK
}
