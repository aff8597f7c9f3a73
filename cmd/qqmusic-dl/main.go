package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tooplick/qqmusic-web/internal/app"
	"github.com/tooplick/qqmusic-web/internal/config"
	"github.com/tooplick/qqmusic-web/internal/download"
	"github.com/tooplick/qqmusic-web/internal/model"
)

func main() {
	// Command line flags
	var (
		midFlag        = flag.String("mid", "", "Track id(s) to download (comma or space separated)")
		tracksFlag     = flag.String("tracks", "", "YAML manifest listing tracks to download")
		flacFlag       = flag.Bool("flac", false, "Prefer lossless FLAC")
		noMetadataFlag = flag.Bool("no-metadata", false, "Do not embed lyrics and tags")
		outputFlag     = flag.String("output", "", "Music directory (overrides config)")
		configFlag     = flag.String("config", "", "Path to config file")
		playlistFlag   = flag.Bool("playlist", false, "Create playlist file")
		verboseFlag    = flag.Bool("verbose", false, "Show verbose output")
		statusFlag     = flag.Bool("status", false, "Check the stored credential and exit")
	)

	flag.Parse()

	ids := model.ParseTrackIDs(*midFlag)
	for _, arg := range flag.Args() {
		ids = append(ids, model.ParseTrackIDs(arg)...)
	}

	if len(ids) == 0 && *tracksFlag == "" && !*statusFlag {
		fmt.Println("QQ Music Downloader - Download tracks from QQ Music")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  qqmusic-dl -mid <id>[,<id>...] [options]")
		fmt.Println("  qqmusic-dl -tracks tracks.yaml [options]")
		fmt.Println("  qqmusic-dl -status")
		fmt.Println()
		fmt.Println("For interactive mode, use: qqmusic-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *outputFlag != "" {
		settings.MusicDir = config.ExpandHome(*outputFlag)
	}
	if *flacFlag {
		settings.PreferFLAC = true
	}
	if *noMetadataFlag {
		settings.EmbedMetadata = false
	}
	if *playlistFlag {
		settings.Playlist.Create = true
	}
	if *verboseFlag && settings.Logging.File == "" {
		settings.Logging.Level = "DEBUG"
	}

	logger, closeLog, err := config.SetupLogger(settings.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		logger, closeLog = config.NullLogger(), func() error { return nil }
	}
	defer closeLog()

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	a, err := app.New(ctx, settings, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	status := a.CredentialStatus(ctx)
	if *statusFlag {
		fmt.Printf("Credential: %s (%s)\n", status.Message, status.State)
		if status.Expired {
			os.Exit(2)
		}
		return
	}

	var tracks []*model.Track
	if *tracksFlag != "" {
		manifest, err := model.LoadManifest(*tracksFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading manifest: %v\n", err)
			os.Exit(1)
		}
		tracks = append(tracks, manifest.Tracks...)
	}
	if len(ids) > 0 {
		tracks = append(tracks, a.ResolveTracks(ctx, ids)...)
	}

	// Create manager with progress callback
	manager := a.Downloader(func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := ""
		switch event.Level {
		case download.LevelError:
			prefix = "✗ "
		case download.LevelWarning:
			prefix = "! "
		case download.LevelSuccess:
			prefix = "✓ "
		case download.LevelInfo:
			prefix = "› "
		default:
			prefix = "  "
		}

		fmt.Println(prefix + event.Message)
	})

	fmt.Println("♫ QQ Music Downloader")
	fmt.Println("────────────────────────────────────────")
	fmt.Printf("Account: %s\n", status.Message)
	fmt.Printf("Downloading %d track(s) to %s\n\n", len(tracks), settings.MusicDir)

	results := manager.DownloadTracks(ctx, tracks, download.OptionsFrom(settings))

	if ctx.Err() != nil {
		fmt.Println("\nDownload cancelled.")
		os.Exit(130)
	}

	received, done, failed, total := manager.GetProgress()
	fmt.Println()
	fmt.Println("────────────────────────────────────────")
	fmt.Printf("Complete! Downloaded %d/%d tracks (%.2f MB)\n", done, total, float64(received)/1024/1024)

	if failed > 0 {
		for _, r := range results {
			if errors.Is(r.Err, download.ErrNotFound) {
				fmt.Printf("  not available: %s\n", r.Track.MID)
			} else if r.Err != nil {
				fmt.Printf("  failed: %s: %v\n", r.Track.MID, r.Err)
			}
		}
		os.Exit(1)
	}
}
