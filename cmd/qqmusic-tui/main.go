package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tooplick/qqmusic-web/internal/app"
	"github.com/tooplick/qqmusic-web/internal/config"
	"github.com/tooplick/qqmusic-web/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	flag.Parse()

	if err := run(*configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The TUI owns the terminal, so logs only go to a file.
	logger := config.NullLogger()
	if settings.Logging.File != "" {
		l, closeLog, err := config.SetupLogger(settings.Logging)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		defer closeLog()
		logger = l
	}

	ctx := context.Background()
	a, err := app.New(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	a.CredentialStatus(ctx)

	return tui.Run(a)
}
