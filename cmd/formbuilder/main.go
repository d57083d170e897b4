package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujeethshingade/form-builder-sub000/internal/config"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/handler"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/service"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/session"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/sse"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/validation"
	"github.com/sujeethshingade/form-builder-sub000/internal/middleware"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/cache"
	"github.com/sujeethshingade/form-builder-sub000/internal/shared/storage"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	version := cfg.Server.Version
	if Version != "dev" {
		version = Version
	}
	zapLogger.Info("Starting form builder",
		zap.String("version", version),
		zap.String("build_time", BuildTime),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := db.AutoMigrate(entity.All()...); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}
	zapLogger.Info("Database migrated")

	var docCache cache.Cache = cache.Noop{}
	if cfg.Redis.Enabled {
		rdb := initRedis(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zapLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		} else {
			docCache = cache.NewRedisCache(rdb, "formbuilder:", cfg.Redis.TTL)
			zapLogger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		}
		cancel()
	}

	store, err := initStorage(cfg.MinIO)
	if err != nil {
		zapLogger.Fatal("Failed to init file storage", zap.Error(err))
	}

	var engineOpts []validation.Option
	if !cfg.Builder.ScriptsEnabled {
		engineOpts = append(engineOpts, validation.WithEvaluator(validation.DisabledEvaluator{}))
		zapLogger.Info("User scripts disabled")
	}

	hub := sse.NewHub(zapLogger)
	repos := repository.NewRepositories(db)
	services, err := service.NewServices(repos, service.Deps{
		Logger:         zapLogger,
		Cache:          docCache,
		Store:          store,
		Events:         hub,
		Engine:         validation.NewEngine(zapLogger, engineOpts...),
		MaxUploadBytes: cfg.Builder.MaxUploadMB << 20,
	})
	if err != nil {
		zapLogger.Fatal("Failed to init services", zap.Error(err))
	}

	handlers := handler.NewHandlers(services, handler.Options{
		DB:            db,
		Hub:           hub,
		Sessions:      session.NewManager(cfg.Builder.HistoryLimit),
		Logger:        zapLogger,
		Version:       version,
		SSEBufferSize: cfg.Builder.SSEBufferSize,

		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins...))
	router.Use(middleware.RequestID())
	// 长连接不压缩
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/events", "/api/builder/ws"})))

	handler.Register(router, handlers, middleware.OptionalAuth(cfg.JWT.Enabled, cfg.JWT.Secret))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE 与 websocket 为长连接
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

// initDatabase postgres 或本地 sqlite 文件
func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// initStorage 未启用 MinIO 时落盘到 ./uploads，经 /api/uploads 下载
func initStorage(cfg config.MinIOConfig) (storage.ObjectStore, error) {
	if !cfg.Enabled {
		return storage.NewLocalStore("./uploads", "/api/uploads"), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return storage.NewMinIOStore(ctx, storage.MinIOConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
		PublicURL: cfg.PublicURL,
	})
}
