package serverhttp

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"match-service/internal/config"
	"match-service/internal/mapping"
	"match-service/internal/middleware"
	resHnd "match-service/internal/resolve/handler"
	"match-service/internal/resolve/service"
	"match-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, res *service.Resolver, store *mapping.Store) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	// health-check
	r.Get("/health", handlers.Health)

	// разрешение позиций
	r.Post("/resolve", resHnd.Resolve(cfg, logger, res))
	r.Post("/resolve/file", resHnd.ResolveFile(cfg, logger, res))

	// каталог и маппинги
	r.Post("/catalog/refresh", resHnd.RefreshCatalog(cfg, logger, res))
	r.Post("/mappings/import", resHnd.ImportMappings(cfg, logger, store))
	r.Get("/mappings/proposals", resHnd.Proposals(logger, store))

	// статистика
	r.Get("/stats", resHnd.Stats(res))
	r.Post("/stats/reset", resHnd.ResetStats(logger, res))

	// профилировщик живёт на том же mux, отдельный порт не нужен
	r.Mount("/debug", chimw.Profiler())

	return r
}
