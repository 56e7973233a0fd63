package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"readwise_notion_sync/internal/config"
	"readwise_notion_sync/internal/notion"
	"readwise_notion_sync/internal/publisher"
	"readwise_notion_sync/internal/readwise"
	"readwise_notion_sync/internal/service"
	"readwise_notion_sync/internal/state"
)

type options struct {
	Config string `long:"config" default:"config.yaml" description:"Path to config file"`
	Days   int    `long:"days" env:"DAYS_TO_SYNC" description:"Only sync highlights from the last N days"`
	All    bool   `long:"all" description:"Resync the full highlight history, ignoring stored state"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	logger := setupLogger("info")

	cfg, err := config.Load(opts.Config)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	stateStore, closeState, err := buildStateStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open state store", "error", err)
		os.Exit(1)
	}
	defer closeState()

	source := readwise.New(readwise.Config{
		BaseURL: cfg.Readwise.BaseURL,
		Token:   cfg.ReadwiseToken,
		Timeout: cfg.Readwise.Timeout,
	}, logger)

	destination := notion.New(notion.Config{
		BaseURL:    cfg.Notion.BaseURL,
		Token:      cfg.NotionToken,
		DatabaseID: cfg.NotionDatabaseID,
		Version:    cfg.Notion.Version,
		Timeout:    cfg.Notion.Timeout,
	}, logger)

	// Event publishing is opt-in: no broker URL, no publisher.
	var pub service.Publisher
	if cfg.Publisher.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.Publisher.URL,
			Exchange:   cfg.Publisher.Exchange,
			RoutingKey: cfg.Publisher.RoutingKey,
			QueueName:  cfg.Publisher.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	syncService := service.NewSyncService(source, destination, stateStore, pub, logger)

	syncOpts := service.Options{All: opts.All}
	if opts.Days > 0 && !opts.All {
		syncOpts.Since = time.Now().UTC().
			AddDate(0, 0, -opts.Days).
			Format("2006-01-02T15:04:05Z")
	}

	stats, err := syncService.Sync(context.Background(), syncOpts)
	if err != nil {
		logger.Error("sync failed", "error", err)
		os.Exit(1)
	}

	logger.Info("done",
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"highlights_added", stats.HighlightsAdded,
		"duration", stats.Duration,
	)
}

func buildStateStore(cfg *config.Config, logger *slog.Logger) (service.StateStore, func(), error) {
	switch cfg.State.Backend {
	case "sqlite":
		store, err := state.NewSQLiteStore(cfg.State.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return state.NewFileStore(cfg.State.Dir, logger), func() {}, nil
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
