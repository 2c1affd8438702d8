package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"wcabridge/internal/config"
	"wcabridge/internal/infrastructure"
	"wcabridge/internal/validation"
	"wcabridge/internal/wca"
	"wcabridge/pkg/contracts"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wcafill", flag.ContinueOnError)
	fs.SetOutput(stderr)
	template := fs.String("p", "", "WCA template workbook whose defined names are the variables")
	fs.StringVar(template, "template", "", "alias of -p")
	configPath := fs.String("config", "", "configuration file (defaults to config.yaml if present)")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	logLevel := fs.String("log-level", "", "override the configured log level")
	version := fs.Bool("version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: wcafill -p template.xlsx [flags] [dataset]\n\n"+
			"Fills the template with the Parts Value sheet of the dataset (default %s)\n"+
			"and places the dataset beside it.\n\n", config.DefaultDatasetFileName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}
	if *template == "" {
		fmt.Fprintln(stderr, "wcafill: -p is required")
		return exitUsage
	}

	cfg, loadErr := config.Load(*configPath)
	if loadErr != nil {
		if *configPath != "" {
			fmt.Fprintln(stderr, "wcafill:", loadErr)
			return exitFailed
		}
		cfg = config.Default()
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger := infrastructure.NewLogger(cfg.Logging, stderr)
	if loadErr != nil {
		logger.Warn("Falling back to default configuration", slog.String("error", loadErr.Error()))
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	dataset := cfg.Conversion.DatasetFileName
	if fs.NArg() == 1 {
		dataset = fs.Arg(0)
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateTemplate(*template); err != nil {
		fmt.Fprintln(stderr, "wcafill:", err)
		return exitFailed
	}

	populator := wca.NewPopulator(wca.WorkbookHost{}, cfg.Conversion.DatasetFileName, logger)
	report, err := populator.Populate(ctx, dataset, *template)
	if err != nil {
		logger.Error("Population failed", slog.String("error", err.Error()))
		fmt.Fprintln(stderr, "✘", err)
		return exitFailed
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintln(stderr, "wcafill:", err)
			return exitFailed
		}
		return exitOK
	}

	fmt.Fprintf(stdout, "✔ %d variable(s) assigned in %s\n", report.Assigned, report.Worksheet)
	if len(report.Rejected) > 0 {
		fmt.Fprintf(stdout, "⚠ not found in template: %s\n", strings.Join(report.Rejected, ", "))
	}
	if report.DatasetCopy != "" {
		fmt.Fprintf(stdout, "  → %s\n", report.DatasetCopy)
	}
	if !report.Recalculated {
		fmt.Fprintln(stdout, "⚠ template could not be flagged for recalculation")
	}
	return exitOK
}
