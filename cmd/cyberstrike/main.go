package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cyberstrike/backend/internal/analysis"
	"github.com/cyberstrike/backend/internal/api"
	"github.com/cyberstrike/backend/internal/config"
	"github.com/cyberstrike/backend/internal/db"
	"github.com/cyberstrike/backend/internal/document"
	"github.com/cyberstrike/backend/internal/extract"
	"github.com/cyberstrike/backend/internal/model"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("cyberstrike v0.1.0")
	fmt.Println("Usage: cyberstrike serve")
}

func serve() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := document.NewStore(cfg.Storage.Dir, extractDocument)
	if err != nil {
		slog.Error("document store", "err", err)
		os.Exit(1)
	}

	pool := document.NewPool(store, cfg.Storage.Workers)
	store.SetScheduler(pool)
	poolDone := make(chan error, 1)
	go func() { poolDone <- pool.Run(ctx) }()

	reconciler := document.NewReconciler(store, pool, cfg.Storage.ReconcileSpec)
	if err := reconciler.Start(); err != nil {
		slog.Error("reconciler", "err", err)
		os.Exit(1)
	}
	defer reconciler.Stop()

	providerCfg, ok := cfg.Providers[cfg.Analysis.Provider]
	if !ok {
		slog.Error("analysis provider not configured", "provider", cfg.Analysis.Provider)
		os.Exit(1)
	}
	llm, ok := model.BuildLLM(cfg.Analysis.Provider, providerCfg)
	if !ok {
		slog.Error("unknown provider type", "provider", cfg.Analysis.Provider, "type", providerCfg.Type)
		os.Exit(1)
	}
	analyst := analysis.New(llm, cfg.Analysis.Model)

	srv := api.NewServer(store, analyst)
	srv.SetMaxUploadBytes(int64(cfg.Storage.MaxUploadMB) << 20)
	srv.SetAuthSecret(cfg.Auth.JWTSecret)

	if cfg.Database.URL != "" {
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			slog.Error("database", "err", err)
			os.Exit(1)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			slog.Error("database migrate", "err", err)
			os.Exit(1)
		}
		srv.SetDatabase(database)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "err", err)
		}
	}()

	slog.Info("starting cyberstrike server", "addr", addr,
		"provider", cfg.Analysis.Provider, "model", cfg.Analysis.Model)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}

	if err := <-poolDone; err != nil {
		slog.Warn("worker pool", "err", err)
	}
}

// extractDocument adapts the extraction package to the store's contract.
func extractDocument(_ context.Context, raw []byte, filename string) (string, document.Metadata, error) {
	res, err := extract.Extract(extract.ContentTypeFor(filename), bytes.NewReader(raw))
	if err != nil {
		return "", document.Metadata{}, err
	}
	return res.Text, document.Metadata{
		PageCount:    res.PageCount,
		Author:       res.Author,
		CreatedAt:    res.CreatedAt,
		LastModified: res.LastModified,
	}, nil
}
