package bootstrap

import (
	"context"
	"fmt"
	"time"

	"stylist_server/adapter/out/cache"
	"stylist_server/adapter/out/memory"
	"stylist_server/adapter/out/mongodb"
	"stylist_server/adapter/out/persistence"
	"stylist_server/adapter/out/realtime"
	"stylist_server/config"
	"stylist_server/core/agent/llm"
	"stylist_server/core/domain"
	"stylist_server/core/port/out"
	"stylist_server/core/service/chat"
	"stylist_server/core/service/composer"
	"stylist_server/core/service/intent"
	"stylist_server/core/service/matcher"
	"stylist_server/core/service/metrics"
	"stylist_server/core/service/stylist"
	"stylist_server/infra/database"
	"stylist_server/internal/stream"
	pkgcache "stylist_server/pkg/cache"
	"stylist_server/pkg/logger"
	pkgmetrics "stylist_server/pkg/metrics"
	"stylist_server/pkg/resilience"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config     *config.Config
	Vocabulary *domain.Vocabulary
	MongoDB    *mongo.Client
	Redis      *redis.Client
	SQLDB      *sqlx.DB

	// Stores
	Catalog   out.CatalogRepository
	Users     out.UserRepository
	Orders    out.OrderRepository
	Snapshots out.MetricsSnapshotCache
	Genders   out.GenderCache

	// Realtime
	RealtimeAdapter *realtime.SSEAdapter
	SSEHub          *realtime.SSEHub
	Publisher       out.EventPublisher
	ActivityStream  *stream.RedisStream // nil without Redis

	// Agent
	LLMClient *llm.Client
	Completer out.TextCompleter // nil when no LLM is configured

	// Services
	ChatService    *chat.Service
	StylistService *stylist.Service
	MetricsService *metrics.Service

	Latency *pkgmetrics.Registry
	Logger  zerolog.Logger
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{
		Config:  cfg,
		Latency: pkgmetrics.NewRegistry(0),
		Logger:  logger.Default().Zerolog(),
	}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	vocab, err := config.LoadVocabulary(cfg.VocabularyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load vocabulary: %w", err)
	}
	deps.Vocabulary = vocab

	// =============================================================================
	// Stores
	// =============================================================================

	if err := deps.initMongo(cfg, &cleanups); err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.initRedis(cfg, &cleanups)
	if err := deps.initOrderLedger(cfg, &cleanups); err != nil {
		cleanup()
		return nil, nil, err
	}

	// =============================================================================
	// Realtime
	// =============================================================================

	deps.RealtimeAdapter = realtime.NewSSEAdapter(logger.Component("sse_adapter"))
	deps.SSEHub = realtime.NewSSEHub(deps.RealtimeAdapter, logger.Component("sse_hub"))
	deps.Publisher = realtime.NewPublisher(deps.RealtimeAdapter)

	// =============================================================================
	// Agent
	// =============================================================================

	if cfg.LLMEnabled() {
		guard := resilience.NewGuard(resilience.GuardConfig{
			Name:        "llm",
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: time.Duration(cfg.BreakerOpenSec) * time.Second,
			CallTimeout: time.Duration(cfg.LLMTimeoutSec) * time.Second,
			Logger:      logger.Component("llm_breaker"),
		})
		deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
			APIKey:      cfg.LLMAPIKey,
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Guard:       guard,
		})
		deps.Completer = deps.LLMClient
		logger.Info("LLM client configured (model: %s)", cfg.LLMModel)
	} else {
		logger.Warn("LLM_API_KEY not set, using heuristic fallbacks only")
	}

	deps.initServices(cfg)

	logger.Info("Dependencies initialized")
	return deps, cleanup, nil
}

// initMongo connects the document stores, or falls back to the in-memory
// stores seeded from CATALOG_FIXTURE_PATH.
func (d *Dependencies) initMongo(cfg *config.Config, cleanups *[]func()) error {
	if cfg.MongoDBURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client, err := mongodb.NewClient(ctx, cfg.MongoDBURL)
		if err == nil {
			d.MongoDB = client
			*cleanups = append(*cleanups, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				client.Disconnect(ctx)
			})

			db := client.Database(cfg.MongoDBName)
			catalog := mongodb.NewCatalogAdapter(db)
			if err := catalog.EnsureIndexes(ctx); err != nil {
				logger.WithError(err).Warn("Failed to ensure catalog indexes")
			}
			d.Catalog = catalog
			d.Users = mongodb.NewUserAdapter(db)
			d.Orders = mongodb.NewOrderAdapter(db)
			logger.Info("MongoDB connected (database: %s)", cfg.MongoDBName)
			return nil
		}
		logger.WithError(err).Warn("MongoDB not available, falling back to in-memory stores")
	} else {
		logger.Warn("MONGODB_URL not set, using in-memory stores")
	}

	catalog := memory.NewCatalog()
	if cfg.CatalogFixturePath != "" {
		loaded, err := memory.LoadCatalogFixture(cfg.CatalogFixturePath)
		if err != nil {
			return fmt.Errorf("load catalog fixture: %w", err)
		}
		catalog = loaded
		logger.Info("Loaded %d products from %s", catalog.Len(), cfg.CatalogFixturePath)
	}
	d.Catalog = catalog
	d.Users = memory.NewUsers()
	d.Orders = memory.NewOrders()
	return nil
}

// initRedis wires the shared caches. Without Redis the caches are process-local.
func (d *Dependencies) initRedis(cfg *config.Config, cleanups *[]func()) {
	snapshotTTL := time.Duration(cfg.MetricsSnapshotTTLMin) * time.Minute
	genderTTL := time.Duration(cfg.GenderCacheTTLHour) * time.Hour

	if cfg.RedisURL != "" {
		client, err := database.NewRedis(cfg.RedisURL)
		if err == nil {
			d.Redis = client
			*cleanups = append(*cleanups, func() { client.Close() })

			store := pkgcache.NewRedisCache(client)
			d.Snapshots = cache.NewMetricsSnapshotCache(store, snapshotTTL)
			d.Genders = cache.NewGenderCache(store, genderTTL)
			d.ActivityStream = stream.NewRedisStream(client, stream.DefaultGroup, logger.Component("stream"))
			logger.Info("Redis connected")
			return
		}
		logger.WithError(err).Warn("Redis not available, using process-local caches")
	} else {
		logger.Warn("REDIS_URL not set, using process-local caches")
	}

	d.Snapshots = &memory.Snapshots{}
	d.Genders = memory.NewGenders()
}

// initOrderLedger replaces the order store with the Postgres ledger when
// ORDER_STORE=postgres.
func (d *Dependencies) initOrderLedger(cfg *config.Config, cleanups *[]func()) error {
	if cfg.OrderStore != config.OrderStorePostgres {
		return nil
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("ORDER_STORE=postgres requires DATABASE_URL")
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	d.SQLDB = db
	*cleanups = append(*cleanups, func() { db.Close() })

	ledger := persistence.NewOrderLedger(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ledger.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Warn("Failed to ensure order ledger schema")
	}
	d.Orders = ledger
	logger.Info("Order ledger backed by PostgreSQL")
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) {
	log := d.Logger
	flavorTimeout := time.Duration(cfg.LLMTimeoutSec) * time.Second

	extractor := intent.NewExtractor(d.Vocabulary, d.Completer, log)
	d.ChatService = chat.NewService(chat.ServiceDeps{
		Vocabulary: d.Vocabulary,
		Extractor:  extractor,
		Matcher:    matcher.New(d.Catalog, d.Vocabulary, log),
		Composer:   composer.New(d.Completer, flavorTimeout, log),
		Catalog:    d.Catalog,
		Completer:  d.Completer,
		Publisher:  d.Publisher,
		Logger:     log,
	})

	aggregator := metrics.NewAggregator(metrics.AggregatorDeps{
		Users:           d.Users,
		Orders:          d.Orders,
		Catalog:         d.Catalog,
		VerboseWarnings: cfg.MetricsVerboseWarnings,
		Logger:          log,
	})
	broadcaster := metrics.NewBroadcaster(metrics.BroadcasterDeps{
		Computer:  aggregator,
		Publisher: d.Publisher,
		Snapshots: d.Snapshots,
		Delay:     cfg.MetricsDebounce,
		Logger:    log,
	})
	d.MetricsService = &metrics.Service{Aggregator: aggregator, Broadcaster: broadcaster}

	d.StylistService = stylist.NewService(stylist.ServiceDeps{
		Vocabulary: d.Vocabulary,
		Users:      d.Users,
		Catalog:    d.Catalog,
		Detector:   stylist.NewGenderDetector(d.Vocabulary, d.Genders, d.Completer, log),
		Pools:      stylist.NewPoolFetcher(d.Catalog, d.Vocabulary, log),
		Completer:  d.Completer,
		Metrics:    broadcaster,
		Config: stylist.SuggestionConfig{
			PoolSize:        cfg.SuggestionPoolSize,
			RefreshPoolSize: cfg.SuggestionRefreshPoolSize,
			RetryPoolSize:   cfg.SuggestionRetryPoolSize,
			Candidates:      cfg.SuggestionCandidates,
		},
		Logger: log,
	})
}

// Close stops background work owned by the services.
func (d *Dependencies) Close() {
	if d.MetricsService != nil {
		d.MetricsService.Broadcaster.Stop()
	}
}
