package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/postal-engine/app/config"
	"github.com/postal-engine/app/controllers"
	"github.com/postal-engine/app/services"
	"github.com/postal-engine/internal/search"
	"github.com/postal-engine/postal"
	"github.com/postal-engine/routes"
)

func main() {
	// 1. Load configuration
	loadConfig()
	cfg, err := config.Load(viper.GetString("config.path"))
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	// 2. Logger
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting postal service",
		zap.String("model_version", cfg.Model.Version),
		zap.Strings("modules", cfg.Model.Modules))

	// 3. Engine
	engine := postal.New(postal.Config{ModelDir: cfg.Model.Dir, TopK: cfg.Languages.TopK}, logger)
	modules, err := postal.ParseModules(cfg.Model.Modules)
	if err != nil {
		logger.Fatal("Invalid model modules", zap.Error(err))
	}
	setupCtx, cancelSetup := context.WithTimeout(context.Background(), time.Minute)
	if err := engine.Setup(setupCtx, modules...); err != nil {
		cancelSetup()
		logger.Fatal("Failed to load model tables", zap.Error(err))
	}
	cancelSetup()
	defer engine.Teardown(modules...)

	// 4. Cache
	cache, closeCache := initCache(cfg, logger)
	defer closeCache()

	// 5. Services
	expandOpts := postal.DefaultExpandOptions()
	if cfg.Expand.MaxExpansions > 0 {
		expandOpts.MaxExpansions = cfg.Expand.MaxExpansions
	}
	if len(cfg.Expand.Components) > 0 {
		mask, err := postal.ParseComponents(cfg.Expand.Components)
		if err != nil {
			logger.Fatal("Invalid expand.components", zap.Error(err))
		}
		expandOpts.AddressComponents = mask
	}
	addressService := services.NewAddressService(engine, cache, services.AddressServiceOptions{
		ModelVersion:   cfg.Model.Version,
		Workers:        cfg.Batch.Workers,
		DefaultCountry: cfg.Parser.DefaultCountry,
		Expand:         expandOpts,
	}, logger)

	var index services.AddressIndex
	if cfg.Search.Enabled {
		index = initSearch(cfg.Search, engine, expandOpts, logger)
	}
	adminService := services.NewAdminService(engine, cache, index, addressService, logger)

	// 6. Controllers and routes
	addressController := controllers.NewAddressController(addressService, engine, cfg.Batch.MaxAddresses, logger)
	adminController := controllers.NewAdminController(adminService, logger)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, addressController, adminController, logger)

	// 7. Serve
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:       30 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

// loadConfig reads connection settings from config/app.yaml and the
// environment. Engine settings live in the file named by config.path.
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("config.path", "config/postal.yaml")
	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "postal")
	viper.SetDefault("meilisearch.url", "http://localhost:7700")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("cache.l1_size", 10000)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

func initLogger(cfg config.LogCfg) *zap.Logger {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			log.Fatalf("Invalid log level %q: %v", cfg.Level, err)
		}
		zc.Level = level
	}
	logger, err := zc.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

// initCache builds the configured backend. The returned func releases it.
func initCache(cfg config.Config, logger *zap.Logger) (services.ICacheService, func()) {
	version := cfg.Model.Version
	switch cfg.Cache.Backend {
	case "none":
		return nil, func() {}
	case "memory":
		cache := services.NewCacheService(cfg.Cache.Size, cfg.Cache.TTL, version, logger)
		return cache, func() { cache.Close() }
	case "redis":
		cache, err := services.NewRedisCacheService(viper.GetString("redis.url"), cfg.Cache.TTL, version, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
		return cache, func() { cache.Close() }
	}

	// mongo and hybrid both keep results in MongoDB
	db := initMongoDB(logger)
	disconnect := func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			logger.Error("Error disconnecting MongoDB", zap.Error(err))
		}
	}
	l1Size := viper.GetInt("cache.l1_size")
	mongoCache, err := services.NewMongoCacheService(db, l1Size, cfg.Cache.TTL, version, logger)
	if err != nil {
		logger.Fatal("Failed to initialize MongoDB cache", zap.Error(err))
	}
	if err := mongoCache.WarmUp(context.Background(), l1Size/2); err != nil {
		logger.Warn("Failed to warm up cache", zap.Error(err))
	}
	if cfg.Cache.Backend == "mongo" {
		return mongoCache, disconnect
	}

	redisCache, err := services.NewRedisCacheService(viper.GetString("redis.url"), cfg.Cache.TTL, version, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
	}
	hybrid := services.NewHybridCacheService(redisCache, mongoCache, logger)
	return hybrid, func() {
		hybrid.Close()
		disconnect()
	}
}

func initMongoDB(logger *zap.Logger) *mongo.Database {
	mongoURL := viper.GetString("mongo.url")

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	dbName := viper.GetString("mongo.database")
	logger.Info("Connected to MongoDB", zap.String("database", dbName))
	return client.Database(dbName)
}

func initSearch(cfg config.SearchCfg, engine *postal.Engine, opts postal.ExpandOptions, logger *zap.Logger) services.AddressIndex {
	expander := func(text string) ([]string, error) {
		return engine.ExpandAddress(text, opts)
	}
	index, err := search.NewExpansionIndex(search.Config{
		Host:      viper.GetString("meilisearch.url"),
		APIKey:    viper.GetString("meilisearch.master_key"),
		IndexName: cfg.Index,
		Timeout:   30 * time.Second,
		Limit:     cfg.Limit,
	}, expander, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Meilisearch", zap.Error(err))
	}
	if err := index.Configure(); err != nil {
		logger.Warn("Failed to configure search index", zap.Error(err))
	}
	return index
}
