package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ethaccount/recovery/docs/swagger"
	"github.com/ethaccount/recovery/src/app"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// @license.name  AGPL-3.0-only

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey  APISecret
// @in                          header
// @name                        X-API-Secret

const (
	AppName    = "Safe Recovery Backend"
	AppVersion = "0.1.0"
)

func main() {
	// Load .env file if it exists (optional in production)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Overload(".env"); err != nil {
			log.Fatalf("Error loading .env file: %v", err)
		}
	}

	config := app.NewAppConfig()

	swagger.SwaggerInfo.Title = AppName + " API"
	swagger.SwaggerInfo.Version = AppVersion
	swagger.SwaggerInfo.Description = fmt.Sprintf("%s building ERC-4337 user operations for Safe7579 accounts with email recovery", AppName)
	if config.Host != nil {
		swagger.SwaggerInfo.Host = *config.Host
	}

	logger := app.InitLogger(*config.LogLevel, config.IsDev())

	rootCtx, rootCancel := context.WithCancel(context.Background())
	rootCtx = logger.WithContext(rootCtx)

	logger.Info().
		Str("version", AppVersion).
		Str("environment", *config.Environment).
		Msgf("Launching %s", AppName)

	scheme := "https"
	if config.IsDev() {
		scheme = "http"
	}
	logger.Info().
		Str("swagger_link", scheme+"://"+*config.Host+"/swagger/index.html").
		Msg("Swagger link")

	application, err := app.NewApplication(rootCtx, *config)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		rootCancel()
		os.Exit(1)
	}

	wg := sync.WaitGroup{}

	wg.Add(1)
	go application.RunHTTPServer(rootCtx, &wg)

	wg.Add(1)
	go application.RunPollingWorker(rootCtx, &wg)

	wg.Add(1)
	go runSystemStatsLogger(rootCtx, &wg, logger)

	if config.IsDev() {
		wg.Add(1)
		go runPprofServer(rootCtx, &wg, logger)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	rootCancel()

	waitChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		logger.Info().Msg("All workers shut down gracefully")
	case <-time.After(15 * time.Second):
		logger.Error().Msg("Timeout waiting for workers to shut down")
	}

	application.Shutdown(rootCtx)

	logger.Info().Msg("Application shutdown complete")
}

// runPprofServer starts a debug server with pprof endpoints
func runPprofServer(ctx context.Context, wg *sync.WaitGroup, logger zerolog.Logger) {
	defer wg.Done()

	server := &http.Server{
		Addr:              "localhost:6060",
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Msg("pprof server is running on http://localhost:6060/debug/pprof/")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Failed to start pprof server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown pprof server gracefully")
	} else {
		logger.Info().Msg("pprof server shutdown complete")
	}
}

// runSystemStatsLogger logs memory and goroutine counts once a minute
func runSystemStatsLogger(ctx context.Context, wg *sync.WaitGroup, logger zerolog.Logger) {
	defer wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			logger.Debug().
				Uint64("heap_mb", m.HeapInuse/1024/1024).
				Uint64("sys_mb", m.Sys/1024/1024).
				Uint32("gc_num", m.NumGC).
				Int("goroutines", runtime.NumGoroutine()).
				Msg("System stats")
		}
	}
}
