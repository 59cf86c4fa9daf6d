package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"captionline/internal/config"
	"captionline/internal/securemem"
	"captionline/internal/theme"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	debugMode  = flag.Bool("d", false, "Enable debug mode")
	logFile    = flag.String("log-file", "", "Log file path (logs disabled by default)")
	configFile = flag.String("config", "config.json", "Path to config.json")
	version    = flag.Bool("version", false, "Print version and exit")
	toolFlag   = flag.String("tool", "", "Tool to generate with (caption, hook, idea, hashtag or a custom tool)")
	langFlag   = flag.String("lang", "", "Output language (en or id)")
)

func main() {
	flag.Parse()
	os.Exit(run(flag.Args()))
}

func run(args []string) int {
	if *version {
		fmt.Printf("captionline %s\n", Version)
		return 0
	}

	logger, closer, err := initLogger(*debugMode, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()
	defer securemem.Purge()
	logger.Info().Str("version", Version).Msg("Captionline starting")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load config")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for _, w := range cfg.Validate() {
		logger.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if err := cfg.ResolvePaths(filepath.Dir(*configFile)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	themes, err := theme.NewManager(cfg.ThemeFile)
	if err != nil {
		logger.Warn().Err(err).Msg("Falling back to default theme")
		themes = theme.NewManagerWithTheme(theme.DefaultTheme())
	}

	a, err := newApp(cfg, logger, themes, os.Stdout)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize client")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	if err := a.applyFlags(*toolFlag, *langFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Check if we're running in batch mode (with "-" argument)
	if len(args) > 0 && args[0] == "-" {
		return runBatchMode(context.Background(), a, os.Stdin, os.Stdout, os.Stderr)
	}

	if err := runInteractive(context.Background(), a); err != nil {
		logger.Error().Err(err).Msg("Interactive session failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func initLogger(debug bool, logFilePath string) (zerolog.Logger, io.Closer, error) {
	// Set log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if logFilePath == "" {
		// No logging to console by default
		return zerolog.New(io.Discard), nopCloser{}, nil
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zerolog.New(file).With().Timestamp().Logger(), file, nil
}
