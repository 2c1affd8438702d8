package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"wcabridge/internal/app"
	"wcabridge/pkg/contracts"
)

func main() {
	configPath := flag.String("config", "", "configuration file (defaults to config.yaml if present)")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.NewApplication(*configPath)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
