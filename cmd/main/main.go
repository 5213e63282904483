package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"match-service/internal/catalog"
	"match-service/internal/config"
	"match-service/internal/mapping"
	"match-service/internal/resolve/service"
	"match-service/internal/semantic"
	serverhttp "match-service/server/http"
)

func main() {
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	store := mapping.NewStore()

	// Коллаборатор опционален: без SEMANTIC_URL каскад просто короче.
	var matcher service.SemanticMatcher
	if c := semantic.NewClient(logger, semantic.Config{
		URL:     cfg.SemanticURL,
		APIKey:  cfg.SemanticAPIKey,
		RPS:     cfg.SemanticRPS,
		Burst:   1,
		Retries: 3,
	}); c != nil {
		matcher = c
	}

	opts := service.Options{
		FuzzyNameThreshold: cfg.FuzzyNameThreshold,
		FuzzyNameCeiling:   cfg.FuzzyNameCeiling,
		FuzzySkuMaxDist:    cfg.FuzzySkuMaxDist,
		MinConfidenceAuto:  cfg.MinConfidenceAuto,
		ProposalMinConf:    cfg.ProposalMinConf,
		SemanticTimeout:    cfg.SemanticTimeout,
		SemanticCandidates: cfg.SemanticCandidates,
	}
	res := service.NewResolver(logger, opts, store, matcher, service.NewStats(), store.Propose)

	if cfg.CatalogFile != "" {
		entries, err := catalog.ReadFile(cfg.CatalogFile, catalog.DefaultColumns())
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("load catalog")
		}
		if err := res.SwapCatalog(entries); err != nil {
			logger.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("build catalog index")
		}
		logger.Info().Int("entries", len(entries)).Str("file", cfg.CatalogFile).Msg("catalog loaded")
	}

	r := serverhttp.NewRouter(cfg, logger, res, store)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
