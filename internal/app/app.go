// Package app wires configuration, news sources, summarization backends and
// the HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deusflow/newsdigest/internal/cache"
	"github.com/deusflow/newsdigest/internal/config"
	"github.com/deusflow/newsdigest/internal/logger"
	"github.com/deusflow/newsdigest/internal/metrics"
	"github.com/deusflow/newsdigest/internal/news"
	"github.com/deusflow/newsdigest/internal/retry"
	"github.com/deusflow/newsdigest/internal/rss"
	"github.com/deusflow/newsdigest/internal/scraper"
	"github.com/deusflow/newsdigest/internal/server"
	"github.com/deusflow/newsdigest/internal/session"
	"github.com/deusflow/newsdigest/internal/summarize"
	"github.com/deusflow/newsdigest/internal/translate"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	server  *fiber.App
	closers []io.Closer
}

// Build constructs every dependency described by cfg. It does not start
// listening.
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*App, error) {
	if m == nil {
		m = metrics.Global
	}
	a := &App{cfg: cfg}

	source, err := newSource(cfg)
	if err != nil {
		return nil, err
	}

	opts := []news.Option{
		news.WithMetrics(m),
		news.WithLanguage(cfg.NewsLanguage),
		news.WithRetry(retry.Config{MaxAttempts: cfg.FetchAttempts, Delay: cfg.FetchRetryDelay, Backoff: true}),
	}
	if cfg.EnrichFullText {
		opts = append(opts, news.WithEnricher(scraper.NewExtractor(cfg.RequestTimeout)))
	}
	fetcher := news.NewFetcher(source, cache.New[[]news.Article](cfg.FetchCacheSize), opts...)

	model, err := a.newModel(ctx, cfg)
	if err != nil {
		m.SetUnhealthy(err.Error())
		a.Close()
		return nil, err
	}
	summarizer := summarize.New(newTranslator(cfg), model, m)

	handlers := server.NewHandlers(server.Deps{
		Zones:      cfg.Zones,
		Fetcher:    fetcher,
		Summarizer: summarizer,
		Sessions:   session.NewStore(cfg.SessionTTL),
		Metrics:    m,
	})
	a.server, err = server.New(server.Options{SecretKey: cfg.SecretKey, AccessLog: cfg.Debug}, handlers)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newSource(cfg *config.Config) (news.Source, error) {
	switch cfg.NewsSource {
	case config.SourceNewsAPI:
		return news.NewNewsAPIClient(cfg.NewsAPIURL, cfg.NewsAPIKey, cfg.RequestTimeout), nil
	case config.SourceRSS:
		return rss.NewSource(cfg.RSSSearchURL, cfg.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown news source %q", cfg.NewsSource)
	}
}

// newTranslator prefers the Google endpoint and falls back to OpenAI when a
// key is configured.
func newTranslator(cfg *config.Config) translate.Translator {
	chain := translate.Chain{translate.NewGoogleTranslator(cfg.TranslateURL, cfg.RequestTimeout)}
	if cfg.OpenAIAPIKey != "" {
		chain = append(chain, translate.NewOpenAITranslator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}
	return chain
}

func (a *App) newModel(ctx context.Context, cfg *config.Config) (summarize.Model, error) {
	switch cfg.SummarizerProvider {
	case config.ProviderGemini:
		g, err := summarize.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g)
		return g, nil
	case config.ProviderOpenAI:
		return summarize.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.SummarizerProvider)
	}
}

// Server exposes the fiber app, mostly for tests.
func (a *App) Server() *fiber.App {
	return a.server
}

// Serve listens on the configured port until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", a.cfg.Port)
		logger.Info("starting server", "addr", addr, "source", a.cfg.NewsSource, "summarizer", a.cfg.SummarizerProvider)
		errCh <- a.server.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close backend", "error", err)
		}
	}
	a.closers = nil
}

// Run loads the configuration, builds the app and serves until SIGINT or
// SIGTERM.
func Run() {
	cfg, err := config.Load()
	if cfg != nil {
		logger.Init(cfg.Debug)
	}
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := Build(ctx, cfg, metrics.Global)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
	logger.Info("server stopped")
}
