package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/geo-stats/external/geoguessr"
	"github.com/riskibarqy/geo-stats/internal/config"
	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/geo-stats/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/geo-stats/internal/interfaces/httpapi"
	"github.com/riskibarqy/geo-stats/internal/platform/cache"
	"github.com/riskibarqy/geo-stats/internal/platform/geo"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/riskibarqy/geo-stats/internal/usecase"
)

// Runtime holds the ingestion pipeline and the resources it owns.
type Runtime struct {
	Ingestion *usecase.IngestionService
	db        *sqlx.DB
}

// Close releases the database handle, if any.
func (r *Runtime) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// NewRuntime wires the pipeline. Without DB_URL rows go to an in-memory store,
// which is only meant for local runs.
func NewRuntime(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}

	resolver, err := loadResolver(cfg, logger)
	if err != nil {
		return nil, err
	}

	var (
		store match.Repository
		db    *sqlx.DB
	)
	if cfg.DBURL == "" {
		logger.Warn("DB_URL is empty, using in-memory write-set store")
		store = memory.NewWriteSetRepository()
	} else {
		db, err = openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = postgres.NewWriteSetRepository(db)
	}

	session, err := geoguessr.NewGuestSession(geoguessr.GuestSessionConfig{
		BaseURL: cfg.GeoGuessrBaseURL,
		Nick:    cfg.GeoGuessrGuestNick,
		Timeout: cfg.GeoGuessrTimeout,
		Logger:  logger,
	})
	if err != nil {
		closeDB(db, logger)
		return nil, fmt.Errorf("build geoguessr guest session: %w", err)
	}

	client := geoguessr.NewClient(geoguessr.ClientConfig{
		BaseURL:        cfg.GeoGuessrBaseURL,
		GameServerURL:  cfg.GeoGuessrGameServerURL,
		Timeout:        cfg.GeoGuessrTimeout,
		MaxRetries:     cfg.GeoGuessrMaxRetries,
		RateLimit:      cfg.GeoGuessrRateLimitRPS,
		RateBurst:      cfg.GeoGuessrRateLimitBurst,
		Session:        session,
		Logger:         logger,
		CircuitBreaker: cfg.GeoGuessrCircuit,
	})

	tracker := cache.NewRefreshTracker(cfg.EnrichmentCacheTTL, time.Now)
	enricher := usecase.NewProfileEnricher(client, tracker, cfg.EnrichmentConcurrency, logger)
	assembler := usecase.NewAssembler(client, enricher, resolver, logger)
	ingestion := usecase.NewIngestionService(assembler, store, usecase.IngestionConfig{
		WorkerCount: cfg.IngestWorkerCount,
		ChunkSize:   cfg.IngestChunkSize,
	}, logger)

	return &Runtime{Ingestion: ingestion, db: db}, nil
}

func NewHTTPServer(cfg config.Config, runtime *Runtime, logger *logging.Logger) (*http.Server, error) {
	if runtime == nil || runtime.Ingestion == nil {
		return nil, fmt.Errorf("ingestion runtime is required")
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(runtime.Ingestion, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		ServiceName:      cfg.ServiceName,
		InternalJobToken: cfg.InternalJobToken,
	})

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}

func loadResolver(cfg config.Config, logger *logging.Logger) (*geo.Resolver, error) {
	var world, subdivisions *geo.BoundaryIndex
	var err error

	if cfg.GeoWorldPath == "" {
		logger.Warn("GEO_WORLD_PATH is empty, guess country codes will be null")
	} else if world, err = geo.LoadBoundaryIndex(cfg.GeoWorldPath, cfg.GeoIDProperty); err != nil {
		return nil, fmt.Errorf("load world boundaries: %w", err)
	}

	if cfg.GeoSubdivisionPath == "" {
		logger.Warn("GEO_SUBDIVISION_PATH is empty, subdivision codes will be null")
	} else if subdivisions, err = geo.LoadBoundaryIndex(cfg.GeoSubdivisionPath, cfg.GeoIDProperty); err != nil {
		return nil, fmt.Errorf("load subdivision boundaries: %w", err)
	}

	logger.Info("geo boundaries loaded", "countries", world.Len(), "subdivisions", subdivisions.Len())
	return geo.NewResolver(world, subdivisions), nil
}

func closeDB(db *sqlx.DB, logger *logging.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("close database", "error", err)
	}
}
