// Package app wires the pipeline together and serves the HTTP API.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/aggregator"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/config"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawler"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawlhealth"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/fetch"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/logger"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/metrics"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/scraper"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/store"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/summarize"
)

// Run starts the full pipeline: crawlers, aggregator, summarization scheduler
// and the HTTP API. Blocks until SIGINT/SIGTERM.
func Run() error {
	logger.Init()
	log := logger.With("app")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	endpoints, err := crawler.LoadEndpoints(cfg.SourcesConfigPath)
	if err != nil {
		log.Warn("sources config unreadable, using defaults", "error", err)
	}

	client := fetch.NewWithDefaults(fetch.Options{
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.FetchRetries,
		RetryDelay: cfg.FetchRetryDelay,
	})
	tracker := crawlhealth.New(logger.With("crawlhealth"))
	enricher := scraper.NewEnricher(client, logger.With("scraper"))

	st, err := store.NewSQLite(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := summarize.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("init summarizer: %w", err)
	}
	defer provider.Close()

	google := crawler.NewGoogleNews(client, endpoints)
	daum := crawler.NewDaum(client, endpoints)
	sources := []crawler.Source{
		google,
		crawler.NewNaver(client, endpoints),
		daum,
	}
	communities := []crawler.Community{
		crawler.NewDcinside(client, endpoints),
		crawler.NewFmkorea(client, endpoints),
		crawler.NewClien(client, endpoints),
	}

	agg := aggregator.New(sources, communities, google, daum, tracker, enricher, st, aggregator.Options{
		NewsDeadline:      cfg.NewsDeadline,
		CommunityDeadline: cfg.CommunityDeadline,
		TrendingLimit:     cfg.TrendingLimit,
		PageSize:          cfg.LatestPageSize,
		CacheTTL:          cfg.CacheTTL,
	}, logger.With("aggregator"))

	scheduler := summarize.NewScheduler(st, provider, summarize.Options{
		Cooldown:            cfg.SummarizeCooldown,
		MaxPerRun:           cfg.MaxPerRun,
		ChunkSize:           cfg.ChunkSize,
		InterChunkDelay:     cfg.InterChunkDelay,
		TransientRetryDelay: cfg.TransientRetryDelay,
	}, logger.With("summarize"))

	go schedulerLoop(ctx, scheduler, cfg.SummarizeCooldown, logger.With("summarize"))
	go cleanupLoop(ctx, st, cfg.SummaryRetention, logger.With("store"))

	srv := newServer(agg)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// schedulerLoop ticks at the cooldown interval; the scheduler itself rechecks
// the cooldown, so an early tick is a cheap no-op.
func schedulerLoop(ctx context.Context, s *summarize.Scheduler, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.Run(ctx)
			if err != nil {
				log.Error("summarization run failed", "error", err)
				metrics.Global.SetError(err.Error())
				continue
			}
			if report.Skipped {
				log.Info("summarization on cooldown", "wait", report.WaitRemaining)
			}
		}
	}
}

func cleanupLoop(ctx context.Context, st store.Store, retention time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := st.Cleanup(retention)
			if err != nil {
				log.Warn("retention cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("retention cleanup", "removed", removed)
			}
		}
	}
}

func newServer(agg *aggregator.Aggregator) *http.Server {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/trending", func(w http.ResponseWriter, r *http.Request) {
		resp, err := agg.Trending(r.Context())
		writeJSON(w, resp, err)
	})
	mux.HandleFunc("/api/latest", func(w http.ResponseWriter, r *http.Request) {
		category := news.Category(r.URL.Query().Get("category"))
		if category == "" {
			category = news.CategorySociety
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		resp, err := agg.Latest(r.Context(), category, page)
		writeJSON(w, resp, err)
	})
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		resp, err := agg.Search(r.Context(), r.URL.Query().Get("q"), limit)
		writeJSON(w, resp, err)
	})
	mux.HandleFunc("/api/news/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/news/"):]
		item, ok := agg.Item(id)
		if !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, item, nil)
	})
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/crawl-logs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, agg.CrawlLogs(50), nil)
	})

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, v any, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(v)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	writeJSON(w, map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}, nil)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, metrics.Global.GetStats(), nil)
}
