package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"feed_notifier/internal/config"
	"feed_notifier/internal/fetcher"
	"feed_notifier/internal/metrics"
	"feed_notifier/internal/notify"
	"feed_notifier/internal/scheduler"
	"feed_notifier/internal/storage"
)

func main() {
	settings, err := config.LoadSettings(os.Args[1:])
	if err != nil {
		slog.Error("load settings", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(settings.DataPath, 0o750); err != nil {
		slog.Error("create data directory", "path", settings.DataPath, "error", err)
		os.Exit(1)
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(settings.DataPath, "app.log"),
		MaxSize:    2,
		MaxBackups: 3,
	}
	defer func() { _ = logFile.Close() }()
	log := newLogger(settings.LogLevel, io.MultiWriter(os.Stderr, logFile))

	feeds, err := config.LoadFile(settings.ConfigPath)
	if err != nil {
		log.Error("load feed config", "path", settings.ConfigPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStorage(ctx, settings)
	if err != nil {
		log.Error("open storage", "backend", settings.Storage, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var telegram notify.Sender
	if settings.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(settings.TelegramBotToken)
		if err != nil {
			log.Error("create telegram sender", "error", err)
			os.Exit(1)
		}
		telegram = tg
	}
	router := notify.NewRouter(telegram, notify.NewService())

	for _, feed := range feeds {
		if err := router.Validate(feed.Destination); err != nil {
			log.Error("validate destination", "url", feed.URL, "error", err)
			os.Exit(1)
		}
	}

	if settings.MetricsAddr != "" {
		go serveMetrics(ctx, settings.MetricsAddr, log)
	}

	f := fetcher.New(&http.Client{})
	sched := scheduler.New(feeds, f, router, store, scheduler.NewState(), log)
	sched.SetTickInterval(settings.Tick)
	sched.SetTimeouts(settings.FetchTimeout, settings.SendTimeout)
	sched.SetWorkers(settings.Workers)

	log.Info("starting notifier", "config", settings.ConfigPath, "data", settings.DataPath, "storage", settings.Storage)

	sched.Run(ctx)

	log.Info("notifier stopped")
}

func openStorage(ctx context.Context, settings *config.Settings) (storage.Storage, error) {
	if settings.Storage == config.StorageSQLite {
		return storage.NewSQLite(ctx, filepath.Join(settings.DataPath, "seen.db"))
	}
	return storage.NewFileStore(settings.DataPath)
}

func serveMetrics(ctx context.Context, addr string, log *slog.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("serve metrics", "error", err)
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
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
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
