package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/damoang/angple-cms/internal/config"
	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/internal/handler"
	"github.com/damoang/angple-cms/internal/middleware"
	"github.com/damoang/angple-cms/internal/migration"
	"github.com/damoang/angple-cms/internal/notify"
	"github.com/damoang/angple-cms/internal/repository"
	"github.com/damoang/angple-cms/internal/revision"
	"github.com/damoang/angple-cms/internal/routes"
	"github.com/damoang/angple-cms/internal/service"
	"github.com/damoang/angple-cms/internal/ws"
	pkgcache "github.com/damoang/angple-cms/pkg/cache"
	"github.com/damoang/angple-cms/pkg/database"
	"github.com/damoang/angple-cms/pkg/elasticsearch"
	"github.com/damoang/angple-cms/pkg/i18n"
	"github.com/damoang/angple-cms/pkg/jwt"
	pkglogger "github.com/damoang/angple-cms/pkg/logger"
	pkgredis "github.com/damoang/angple-cms/pkg/redis"
	"github.com/damoang/angple-cms/pkg/requestcontext"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// @title           Angple CMS API
// @version         1.0
// @description     Content revisions: history, compare, revert and publish
//
// @license.name    MIT
//
// @host            localhost:8082
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	log := pkglogger.GetLogger()
	log.Info().Str("env", env).Strs("dotenv", dotenvFiles).Msg("starting angple-cms")

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run() error {
	log := pkglogger.GetLogger()

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}
	config.LogResolved(cfg)
	domain.DefaultLocale = cfg.Revision.DefaultLocale

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.GetDSN(),
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		LogQueries:      cfg.Database.LogQueries,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	log.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	if err := migration.Run(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Redis is optional; without it history reads go straight to the database
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, pkgredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without cache")
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
			log.Info().Msg("connected to redis")
		}
	}
	cacheService := pkgcache.NewService(redisClient)

	bundle := i18n.NewDefaultBundle(i18n.Locale(cfg.Revision.DefaultLocale))
	if _, err := os.Stat("i18n"); err == nil {
		if err := bundle.LoadDir("i18n"); err != nil {
			log.Warn().Err(err).Msg("i18n LoadDir failed")
		}
	}

	// Live revision feed; redis pub/sub fans it out across instances
	hub := ws.NewHub(redisClient)
	go hub.Run()
	defer hub.Stop()

	// Revision event sinks
	sinks := notify.NewFanout().
		Add("metrics", notify.MetricsSink{}).
		Add("log", notify.LogSink{}).
		Add("watch", hub)
	if cacheService.IsAvailable() {
		sinks.Add("cache", notify.NewCacheInvalidator(cacheService))
	}
	if cfg.Kafka.Enabled {
		kafkaSink := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kafkaSink.Close() }()
		sinks.Add("kafka", kafkaSink)
	}

	var searchHandler *handler.SearchHandler
	if cfg.Search.Enabled {
		esClient, err := elasticsearch.NewClient(cfg.Search.Addresses, cfg.Search.Username, cfg.Search.Password)
		if err != nil {
			log.Warn().Err(err).Msg("elasticsearch unavailable, revision search disabled")
		} else {
			indexer := notify.NewSearchIndexer(esClient, cfg.Search.Index)
			if err := indexer.EnsureIndex(ctx); err != nil {
				log.Warn().Err(err).Str("index", cfg.Search.Index).Msg("revision index setup failed")
			}
			sinks.Add("search", indexer)
			searchHandler = handler.NewSearchHandler(indexer, bundle)
		}
	}

	memberRepo := repository.NewMemberRepository(db)
	opts := []revision.Option{
		revision.WithEventSink(sinks),
		revision.WithRequestContext(requestcontext.Provider{}),
		revision.WithActorResolver(memberRepo),
		revision.WithDescriptions(revision.NewDescriptions(bundle, i18n.Locale(cfg.Revision.DefaultLocale))),
		revision.WithMaxRetries(cfg.Revision.MaxRetries),
	}
	if cacheService.IsAvailable() {
		opts = append(opts, revision.WithHistoryCache(notify.NewHistoryCache(cacheService, cfg.Revision.HistoryCacheTTL)))
	}
	revisions := revision.NewService(db, repository.NewRevisionRepository(db), opts...)
	content := service.NewContentService(db, revision.DefaultRegistry(), revisions)

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiresIn)*time.Second)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(cfg.CORS.AllowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", middleware.HeaderRequestID, middleware.HeaderSessionID},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{middleware.HeaderRequestID, "Content-Language"},
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RequestContext())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", healthHandler(db, cacheService))

	routes.Setup(router,
		handler.NewRevisionHandler(revisions, content, bundle, cfg.Revision.HistoryLimit),
		handler.NewContentHandler(content, bundle),
		handler.NewWatchHandler(hub, content, bundle, cfg.CORS.AllowOrigins),
		searchHandler,
		jwtManager,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return reportDBStats(gctx, db)
	})
	return g.Wait()
}

func healthHandler(db *gorm.DB, cacheService pkgcache.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok", "service": "angple-cms", "time": time.Now().Unix()}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "down"
		}
		if cacheService.IsAvailable() {
			body["redis"] = "up"
			if err := cacheService.Ping(c.Request.Context()); err != nil {
				body["redis"] = "down"
			}
		}
		c.JSON(status, body)
	}
}

// reportDBStats feeds the connection gauge until ctx is done
func reportDBStats(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			middleware.SetDBConnectionsOpen(float64(sqlDB.Stats().OpenConnections))
		}
	}
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
