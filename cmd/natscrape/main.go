package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"natscrape"
	"natscrape/config"
	"natscrape/history"
	"natscrape/metadata"
	"natscrape/scraper"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an int from environment variable or returns default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration parses a duration from environment variable or returns default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	// A .env file in the working directory supplies NATSCRAPE_* defaults.
	_ = godotenv.Load()

	pages := flag.Int("pages", getEnvInt("NATSCRAPE_PAGES", 0), "Number of listing pages to scan (required; NATSCRAPE_PAGES)")
	articleType := flag.String("type", getEnv("NATSCRAPE_TYPE", ""), "Exact article type to match, e.g. 'News' (NATSCRAPE_TYPE)")
	year := flag.Int("year", getEnvInt("NATSCRAPE_YEAR", 0), "Filter by publication year, e.g. 2020 (NATSCRAPE_YEAR)")
	outDir := flag.String("out", getEnv("NATSCRAPE_OUT", "output"), "Output directory (NATSCRAPE_OUT)")
	delay := flag.Duration("delay", getEnvDuration("NATSCRAPE_DELAY", 800*time.Millisecond), "Delay before each article request (NATSCRAPE_DELAY)")
	feedURL := flag.String("feed", getEnv("NATSCRAPE_FEED", ""), "Discover articles from this RSS/Atom feed instead of listing pages (NATSCRAPE_FEED)")
	configPath := flag.String("config", getEnv("NATSCRAPE_CONFIG", ""), "Path to config file (default ~/.natscrape/config.yaml; NATSCRAPE_CONFIG)")
	historyDB := flag.String("history", getEnv("NATSCRAPE_HISTORY", ""), "SQLite file recording run summaries; empty disables (NATSCRAPE_HISTORY)")
	showRuns := flag.Bool("show-runs", false, "Print recorded run summaries and exit (requires -history)")
	logLevel := flag.String("log-level", getEnv("NATSCRAPE_LOG_LEVEL", "info"), "Log level: debug, info, warn, error (NATSCRAPE_LOG_LEVEL)")
	flag.Parse()

	// Track which flags the user set explicitly: those beat the config file.
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	path := *configPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}

	var fileCfg *config.FileConfig
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "natscrape: %v\n", err)
			os.Exit(1)
		}
		fileCfg = cfg
	}

	baseURL := ""
	userAgent := ""
	timeout := 15 * time.Second
	policy := scraper.DefaultRetryPolicy()

	if fileCfg != nil {
		baseURL = fileCfg.BaseURL
		userAgent = fileCfg.UserAgent
		if fileCfg.TimeoutSec != 0 {
			timeout = fileCfg.Timeout()
		}
		if fileCfg.Retry != (config.RetryConfig{}) {
			policy = scraper.RetryPolicy{
				MaxRetries:   fileCfg.Retry.MaxRetries,
				InitialDelay: time.Duration(fileCfg.Retry.InitialDelayMs) * time.Millisecond,
				MaxDelay:     time.Duration(fileCfg.Retry.MaxDelayMs) * time.Millisecond,
				Multiplier:   fileCfg.Retry.BackoffMultiplier,
			}
		}
		if !explicit["out"] && fileCfg.OutputDir != "" {
			*outDir = fileCfg.OutputDir
		}
		if !explicit["delay"] && fileCfg.DelayMs != 0 {
			*delay = fileCfg.Delay()
		}
		if !explicit["feed"] && fileCfg.FeedURL != "" {
			*feedURL = fileCfg.FeedURL
		}
		if !explicit["history"] && fileCfg.HistoryDB != "" {
			*historyDB = fileCfg.HistoryDB
		}
		if !explicit["log-level"] && fileCfg.LogLevel != "" {
			*logLevel = fileCfg.LogLevel
		}
	}

	logger := newLogger(*logLevel)

	if *showRuns {
		if *historyDB == "" {
			fmt.Fprintln(os.Stderr, "natscrape: -show-runs requires -history")
			os.Exit(2)
		}
		if err := printRuns(*historyDB); err != nil {
			logger.Error("failed to list runs", "error", err)
			os.Exit(1)
		}
		return
	}

	if *pages < 1 && *feedURL == "" {
		fmt.Fprintln(os.Stderr, "natscrape: -pages is required and must be at least 1")
		flag.Usage()
		os.Exit(2)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Error("failed to create output directory", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	sink, err := metadata.Open(filepath.Join(*outDir, metadata.FileName))
	if err != nil {
		logger.Error("failed to open metadata file", "error", err)
		os.Exit(1)
	}
	defer sink.Close()

	client := scraper.NewClient(timeout, policy)
	if userAgent != "" {
		client.SetUserAgent(userAgent)
	}

	runner := natscrape.NewRunner(client, sink, logger, natscrape.Options{
		Pages:   *pages,
		Type:    *articleType,
		Year:    *year,
		OutDir:  *outDir,
		Delay:   *delay,
		BaseURL: baseURL,
		FeedURL: *feedURL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	stats, runErr := runner.Run(ctx)
	if runErr != nil {
		logger.Error("run interrupted", "error", runErr)
	}

	if *historyDB != "" {
		if err := recordRun(*historyDB, startedAt, stats, *outDir, runner.Source()); err != nil {
			logger.Error("failed to record run history", "error", err)
		}
	}

	if runErr != nil {
		sink.Close()
		os.Exit(1)
	}
}

// recordRun appends this run's summary to the history database.
func recordRun(dbPath string, startedAt time.Time, stats natscrape.Stats, outDir, source string) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordRun(history.RunSummary{
		RunID:      uuid.New(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Pages:      stats.Pages,
		Matched:    stats.Matched,
		Saved:      stats.Saved,
		OutputDir:  outDir,
		Source:     source,
	})
}

// printRuns writes recorded run summaries to stdout, newest first.
func printRuns(dbPath string) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(0)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  pages=%d matched=%d saved=%d  %s (%s)\n",
			run.StartedAt.Format(time.RFC3339),
			run.RunID,
			run.Pages, run.Matched, run.Saved,
			run.OutputDir, run.Source)
	}

	return nil
}
