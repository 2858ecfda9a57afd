package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"browserd/api"
	"browserd/browser"
	"browserd/config"
	"browserd/extract"
	"browserd/pkg/metrics"
	"browserd/search"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Catch signals before launch so an interrupt still shuts the browser down.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)

	// =========
	// Chromedp
	// =========
	session := browser.NewSession(browser.SessionOptions{
		ExecPath: cfg.ExecPath,
		ProxyURL: cfg.ProxyURL,
		Flags:    cfg.LaunchFlags,
	}, logger)

	sig, err := launch(session, cfg.LaunchTimeout, sigs)
	if sig != nil {
		logger.Info("Interrupted during startup", zap.Stringer("signal", sig))
		shutdown(cfg, session, logger)
		_ = logger.Sync()
		os.Exit(0)
	}
	if err != nil {
		logger.Fatal("Failed to initialize browser", zap.Error(err))
	}
	metrics.SetBrowserUp(true)

	executor := browser.NewExecutor(session, browser.ExecutorOptions{
		UserAgent:          cfg.UserAgent,
		MaxConcurrentPages: cfg.MaxConcurrentPages,
	}, logger)

	// =========
	// HTTP
	// =========
	server := api.NewServer(
		executor,
		session,
		search.NewSearcher(search.Google, cfg.NavigationTimeout, logger),
		extract.NewExtractor(logger),
		extract.NewReader(logger),
		api.Options{
			Port:          cfg.AppPort,
			EnableArticle: cfg.EnableArticle,
			EnableMetrics: cfg.EnableMetrics,
		},
		logger,
	)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	// =========
	// Shutdown
	// =========
	select {
	case sig := <-sigs:
		if sig == syscall.SIGINT {
			logger.Info("Interrupted, shutting down...")
		} else {
			logger.Info("Shutting down browser service...")
		}
	case err := <-serveErr:
		shutdown(cfg, session, logger)
		logger.Fatal("HTTP server stopped", zap.Error(err))
	}

	shutdown(cfg, session, logger)
	_ = server.Close()
	_ = logger.Sync()
	os.Exit(0)
}

type launcher interface {
	Launch(ctx context.Context) error
}

// launch starts the browser within timeout. A signal received meanwhile
// aborts the launch and is returned.
func launch(l launcher, timeout time.Duration, sigs <-chan os.Signal) (os.Signal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var sig os.Signal
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case sig = <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := l.Launch(ctx)
	cancel()
	<-watched
	return sig, err
}

// shutdown closes the browser, giving up after the configured wait.
func shutdown(cfg *config.Config, session *browser.Session, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := session.Shutdown(ctx); err != nil {
		logger.Warn("Browser shutdown incomplete", zap.Error(err))
	}
	metrics.SetBrowserUp(false)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
