package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethaccount/recovery/src/handler"
	"github.com/ethaccount/recovery/src/repository"
	"github.com/ethaccount/recovery/src/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/rs/zerolog"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Application struct {
	config            AppConfig
	database          *gorm.DB
	redis             *redis.Client
	BlockchainService *service.BlockchainService
	RecoveryService   *service.RecoveryService
	TrackerService    *service.TrackerService
	PollingService    *service.PollingService
}

func NewApplication(ctx context.Context, config AppConfig) (*Application, error) {
	logger := zerolog.Ctx(ctx).With().Str("function", "NewApplication").Logger()

	networks, err := LoadNetworks(*config.NetworksFile)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("networks", len(networks)).Msg("Network registry loaded")

	// Connect to Redis
	redisOpts, err := redis.ParseURL(*config.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(redisOpts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connection to redis failed: %w", err)
	}
	logger.Info().Msg("Redis connection established")

	// Connect to database
	database, err := gorm.Open(postgresDriver.Open(*config.DSN), &gorm.Config{})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connection to database failed: %w", err)
	}

	db, err := database.DB()
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to get underlying database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		rdb.Close()
		db.Close()
		return nil, fmt.Errorf("connection to database failed: %w", err)
	}
	logger.Info().Msg("Database connection established")

	if err := MigrationUp(*config.DSN, *config.MigrationPath); err != nil {
		rdb.Close()
		db.Close()
		return nil, err
	}

	userOpRepo := repository.NewUserOperationRepository(database)
	statusCache := repository.NewStatusCacheRepository(rdb, *config.RedisPrefix)
	signerKeyRepo := repository.NewSignerKeyRepository(rdb, *config.RedisPrefix)

	blockchainService := service.NewBlockchainService(networks)
	trackerService := service.NewTrackerService(userOpRepo, statusCache, blockchainService)
	blockchainService.SetJournal(trackerService)

	signer, err := service.LoadSignerKey(ctx, signerKeyRepo, *config.PrivateKey)
	if err != nil {
		rdb.Close()
		db.Close()
		return nil, fmt.Errorf("failed to load signer key: %w", err)
	}

	recoveryService := service.NewRecoveryService(blockchainService, signer)
	pollingService := service.NewPollingService(trackerService, *config.PollingInterval)

	return &Application{
		config:            config,
		database:          database,
		redis:             rdb,
		BlockchainService: blockchainService,
		RecoveryService:   recoveryService,
		TrackerService:    trackerService,
		PollingService:    pollingService,
	}, nil
}

func (app *Application) Shutdown(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().Str("function", "Shutdown").Logger()

	if app.BlockchainService != nil {
		app.BlockchainService.Close()
		logger.Info().Msg("Chain clients closed")
	}

	// Close database connection
	if app.database != nil {
		db, err := app.database.DB()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to get underlying database connection")
		} else {
			if err := db.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close database connection")
			} else {
				logger.Info().Msg("Database connection closed")
			}
		}
	}

	// Close Redis connection
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close redis connection")
		} else {
			logger.Info().Msg("Redis connection closed")
		}
	}
}

func (app *Application) RunHTTPServer(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(ctx).With().Str("function", "RunHTTPServer").Logger()

	// Set to release mode to disable Gin logger
	gin.SetMode(gin.ReleaseMode)

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	app.registerRoutes(ctx, ginRouter)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", *app.config.Port),
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Msgf("HTTP server is on http://localhost:%s/api/v1/health", *app.config.Port)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panic().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("Gracefully shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown HTTP server gracefully")
	} else {
		logger.Info().Msg("HTTP server shutdown complete")
	}
}

func (app *Application) RunPollingWorker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(ctx).With().Str("function", "RunPollingWorker").Logger()
	logger.Info().Dur("interval", *app.config.PollingInterval).Msg("Starting receipt polling worker")

	if err := app.PollingService.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Receipt polling worker stopped unexpectedly")
		return
	}

	logger.Info().Msg("Receipt polling worker stopped")
}

func (app *Application) registerRoutes(ctx context.Context, router *gin.Engine) {
	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = *app.config.AllowOrigins
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", handler.APISecretHeader}
	config.AllowCredentials = true

	router.Use(cors.New(config))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handler.RegisterRoutes(ctx, router, handler.Services{
		Networks: app.BlockchainService,
		Planner:  app.BlockchainService,
		Recovery: app.RecoveryService,
		Tracker:  app.TrackerService,
	}, *app.config.APISecret)
}
