package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/zhejian/shortcodes/internal/api"
	"github.com/zhejian/shortcodes/internal/config"
	"github.com/zhejian/shortcodes/internal/events"
	"github.com/zhejian/shortcodes/internal/middleware"
	"github.com/zhejian/shortcodes/internal/observability"
	"github.com/zhejian/shortcodes/internal/repository"
	"github.com/zhejian/shortcodes/internal/service"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// redisPinger adapts *redis.Client to api.CacheInterface.
type redisPinger struct{ client *redis.Client }

func (r *redisPinger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Dependencies are the connections a server is built from. DB is required
// for the postgres store; Cache and Publisher are optional.
type Dependencies struct {
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Publisher events.Publisher
}

// NewRouter initializes all dependencies and returns a configured Gin router.
// This is useful for testing where you don't need the full HTTP server.
func NewRouter(cfg *config.Config, deps Dependencies, obs *observability.Observability) (*gin.Engine, error) {
	logger := obs.Logger

	var repo repository.ShortLinkRepository
	var db api.DBInterface
	switch cfg.Database.Store {
	case config.StoreMemory:
		repo = repository.NewMemoryRepository()
	default:
		if deps.DB == nil {
			return nil, fmt.Errorf("store %q requires a database pool", cfg.Database.Store)
		}
		repo = repository.NewPostgresRepository(deps.DB)
		db = deps.DB
	}

	var cache api.CacheInterface
	if deps.Cache != nil {
		repo = repository.NewCachedRepository(repo, deps.Cache, repository.CacheOptions{
			TTL:         cfg.Cache.TTL,
			NegativeTTL: cfg.Cache.NegativeTTL,
			Registerer:  obs.Registry,
			Logger:      logger,
		})
		cache = &redisPinger{client: deps.Cache}
	}

	options := []service.Option{service.WithLogger(logger)}
	if deps.Publisher != nil {
		options = append(options, service.WithPublisher(deps.Publisher))
	}
	if obs.MeterProvider != nil {
		options = append(options, service.WithMeterProvider(obs.MeterProvider))
	}

	links, err := service.NewLinkService(repo, cfg.ServiceOptions(), options...)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.Observability.ServiceName),
		middleware.RequestID(),
		middleware.CORS(),
		middleware.Logging(logger),
	)

	if obs.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{Registry: obs.Registry})))
	}

	api.NewHandler(links, db, cache, logger).RegisterRoutes(router)

	return router, nil
}

// NewServer initializes all dependencies and returns a configured HTTP server.
// This includes the router plus HTTP server settings (timeouts, address, etc.).
func NewServer(cfg *config.Config, deps Dependencies, obs *observability.Observability) (*http.Server, error) {
	router, err := NewRouter(cfg, deps, obs)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, nil
}
