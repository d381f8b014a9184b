package server

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/analyses"
	"cvpulse-backend/internal/cleanup"
	"cvpulse-backend/internal/experiments"
	"cvpulse-backend/internal/features/interview"
	"cvpulse-backend/internal/features/jdmatch"
	"cvpulse-backend/internal/features/learningpath"
	"cvpulse-backend/internal/fileguard"
	"cvpulse-backend/internal/provider"
	"cvpulse-backend/internal/provider/gemini"
	"cvpulse-backend/internal/provider/heuristic"
	"cvpulse-backend/internal/quota"
	"cvpulse-backend/internal/ratelimit"
	"cvpulse-backend/internal/sessions"
	"cvpulse-backend/internal/shared/config"
	"cvpulse-backend/internal/shared/metrics"
	"cvpulse-backend/internal/shared/server/middleware"
	"cvpulse-backend/internal/shared/server/respond"
	"cvpulse-backend/internal/shared/storage/db"
	"cvpulse-backend/internal/shared/storage/object"
	localstore "cvpulse-backend/internal/shared/storage/object/local"
	s3store "cvpulse-backend/internal/shared/storage/object/s3"
	"cvpulse-backend/internal/shared/telemetry"
)

// NewRouter constructs the Gin engine with middleware, dependencies and
// routes registered. Postgres and Gemini are optional; without them the
// service runs on in-memory stores and the offline analyzer.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(),
	)

	ctx := context.Background()

	sqlDB := connectDatabase(ctx, cfg)
	objects := buildObjectStore(ctx, cfg)
	backend, analysisProvider, fallback := buildProviders(ctx, cfg)

	guard := fileguard.New(cfg.MaxUploadBytes)
	limiter := ratelimit.New(cfg.RateLimitWindow)

	var quotaSvc *quota.Service
	var experimentsSvc *experiments.Service
	var analysisRepo analyses.Repo
	if sqlDB != nil {
		quotaSvc = quota.NewPostgresService(quota.NewPGStore(sqlDB))
		experimentsSvc = experiments.NewPostgresService(experiments.NewPGStore(sqlDB))
		analysisRepo = analyses.NewPGRepo(sqlDB)
	} else {
		quotaSvc = quota.NewService()
		experimentsSvc = experiments.NewService()
		analysisRepo = analyses.NewMemoryRepo()
	}

	analysisSvc := analyses.NewService(
		guard, limiter, quotaSvc, experimentsSvc,
		analysisProvider, fallback, analysisRepo, objects,
	)

	interviewStore, err := sessions.New[interview.Session](sessions.DefaultCapacity)
	if err != nil {
		telemetry.Error("router.session_store", map[string]any{"error": err.Error()})
	}

	analysisHandler := analyses.NewHandler(analysisSvc)
	quotaHandler := quota.NewHandler(quotaSvc)
	experimentsHandler := experiments.NewHandler(experimentsSvc)
	jdmatchHandler := jdmatch.NewHandler(jdmatch.NewService(backend))
	interviewHandler := interview.NewHandler(interview.NewService(backend, interviewStore))
	learningpathHandler := learningpath.NewHandler(learningpath.NewService(backend))

	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	analysisHandler.Register(api)
	quotaHandler.Register(api)
	experimentsHandler.Register(api)

	// Upload traffic is limited inside the analysis pipeline; the text
	// features share a separate bucket here.
	features := api.Group("", ratelimit.Middleware(limiter, "features"))
	jdmatchHandler.Register(features)
	interviewHandler.Register(features)
	learningpathHandler.Register(features)

	startCleanup(ctx, cfg, limiter)

	return r
}

func connectDatabase(ctx context.Context, cfg config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Warn("router.db_connect_failed", map[string]any{"error": err.Error()})
		return nil
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Warn("router.migrations_failed", map[string]any{"error": err.Error()})
		sqlDB.Close()
		return nil
	}
	return sqlDB
}

func buildObjectStore(ctx context.Context, cfg config.Config) object.Store {
	if cfg.ObjectStoreType == "s3" && cfg.S3Bucket != "" {
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err == nil {
			return store
		}
		telemetry.Warn("router.s3_store_failed", map[string]any{"error": err.Error()})
	}
	return localstore.New(cfg.LocalStoreDir)
}

// buildProviders returns the raw text backend for the chat-style
// features plus the analysis provider chain. Without a Gemini key both
// analysis paths run on the offline analyzer and the backend is nil.
func buildProviders(ctx context.Context, cfg config.Config) (provider.Backend, provider.Provider, provider.Provider) {
	fallback := heuristic.New()

	if cfg.GeminiAPIKey == "" {
		return nil, fallback, fallback
	}
	client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		telemetry.Warn("router.gemini_init_failed", map[string]any{"error": err.Error()})
		return nil, fallback, fallback
	}

	remote := &provider.Remote{Backend: client, Timeout: cfg.ProviderTimeout}
	return client, provider.NewFailover(remote, fallback), fallback
}

func startCleanup(ctx context.Context, cfg config.Config, limiter *ratelimit.Limiter) {
	sweeper := cleanup.New(cfg.LocalStoreDir, cfg.CleanupMaxAge)
	sweeper.Hooks = append(sweeper.Hooks, func() { limiter.Sweep() })
	go sweeper.Start(ctx, cfg.CleanupInterval)
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
