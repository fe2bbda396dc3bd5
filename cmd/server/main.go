package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/api"
	"github.com/tendant/campus-content/pkg/campuscontent/config"
)

func main() {
	configFile := flag.String("config", "", "optional YAML config file; environment variables take precedence")
	flag.Parse()

	logger := slog.Default()

	var opts []config.Option
	if *configFile != "" {
		opts = append(opts, config.WithFile(*configFile))
	}
	opts = append(opts, config.WithEnv())

	serverConfig, err := config.Load(opts...)
	if err != nil {
		logger.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	var reg prometheus.Registerer
	if serverConfig.EnableMetrics {
		reg = prometheus.DefaultRegisterer
	}

	ctx := context.Background()
	svc, cleanup, err := serverConfig.BuildService(ctx, logger, reg)
	if err != nil {
		logger.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	secret := serverConfig.JWTSecret
	if secret == "" {
		// Tokens signed by anyone else are rejected, so writes are disabled.
		secret = uuid.NewString()
		logger.Warn("JWT_SECRET not set; write endpoints will reject every token")
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: newRouter(svc, serverConfig, api.NewAuth(secret), logger),
	}

	go func() {
		logger.Info("Campus content server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.Storage.Type,
			"cache", serverConfig.RedisURL != "",
			"fallback", serverConfig.FallbackMode,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}

	logger.Info("Server exiting")
}

// newRouter mounts the health probes, metrics and the content API
func newRouter(svc campuscontent.Service, serverConfig *config.ServerConfig, auth *jwtauth.JWTAuth, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if serverConfig.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)

	if serverConfig.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Mount("/api/v1", api.NewHandler(svc, auth, api.WithLogger(logger)).Routes())

	return r
}
