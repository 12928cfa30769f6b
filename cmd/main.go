package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oksasatya/go-rental-marketplace/config"
	"github.com/oksasatya/go-rental-marketplace/internal/application"
	"github.com/oksasatya/go-rental-marketplace/internal/container"
	mongoinfra "github.com/oksasatya/go-rental-marketplace/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-rental-marketplace/internal/infrastructure/postgres"
	"github.com/oksasatya/go-rental-marketplace/internal/interface/middleware"
	"github.com/oksasatya/go-rental-marketplace/internal/router"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// MongoDB holds users, services and signup codes
	mongoClient, db, err := mongoinfra.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoTimeout)
	if err != nil {
		logger.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(c)
	}()
	if err := mongoinfra.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("failed to ensure mongodb indexes: %v", err)
	}
	container.SetMongo(db)

	// Postgres audit log
	if cfg.AuditEnabled {
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			logger.Fatalf("migration failed: %v", err)
		}
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLife,
		})
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		container.SetPGPool(pool)
	}

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}
	container.SetRedis(rdb)

	// RabbitMQ publisher for email jobs
	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; emails will not be sent")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	// Elasticsearch (optional)
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err == nil {
			c, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = helpers.EnsureIndex(c, es, cfg.ESServicesIndex, application.ServicesIndexMapping)
			cancel()
		}
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; search disabled")
		} else {
			container.SetES(es)
		}
	}

	// GCS (optional; picture uploads answer 503 without it)
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs unavailable; picture uploads disabled")
		} else {
			defer func() { _ = gcsClient.Close() }()
			container.SetGCS(gcsClient)
		}
	}

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL))

	// Gin engine and global middleware
	r := gin.New()
	// client IPs come from RealIP; gin must not read forwarding headers itself
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Fatalf("trusted proxies: %v", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r, "/api", logger)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}
