package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/username/liquidador/src/config"
	"github.com/username/liquidador/src/exporters"
	"github.com/username/liquidador/src/handlers"
	"github.com/username/liquidador/src/logger"
	"github.com/username/liquidador/src/metrics"
	"github.com/username/liquidador/src/processors"
	"github.com/username/liquidador/src/security"
	"github.com/username/liquidador/src/services"
	"github.com/username/liquidador/src/store"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	pinToHash := flag.String("hash-pin", "", "print the bcrypt hash of the given operator PIN and exit")
	flag.Parse()
	if *pinToHash != "" {
		hash, err := security.NewAuthService("").HashPIN(*pinToHash)
		if err != nil {
			stdlog.Fatalf("Failed to hash PIN: %v", err)
		}
		fmt.Println(hash)
		return
	}

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Liquidador backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing services and handlers...")
	liquidationMetrics := metrics.NewLiquidationMetrics()

	proofService, err := services.NewProofService(config.Cfg.UploadDir)
	if err != nil {
		logger.L.Error("Failed to initialize proof storage", "dir", config.Cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	recordStore := store.NewRecordStore(proofService)
	liquidationProcessor := processors.NewLiquidationProcessor()
	csvExporter := exporters.NewCSVExporter()

	rateService := services.NewRateService(services.RateServiceConfig{
		APIURL:   config.Cfg.RateAPIURL,
		APIKey:   config.Cfg.RateAPIKey,
		Model:    config.Cfg.RateAPIModel,
		Timeout:  config.Cfg.RateTimeout,
		CacheTTL: config.Cfg.RateCacheTTL,
	}, liquidationMetrics)

	liquidationService := services.NewLiquidationService(
		liquidationProcessor, recordStore, proofService, csvExporter, liquidationMetrics,
	)

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(authService, config.Cfg.OperatorPINHash)
	rateHandler := handlers.NewRateHandler(rateService)
	liquidationHandler := handlers.NewLiquidationHandler(liquidationService, proofService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/auth/session", authHandler.CreateSessionHandler)

	apiRouter.HandleFunc("GET /api/rate", authHandler.Middleware(rateHandler.HandleGetRate))
	apiRouter.HandleFunc("POST /api/liquidations/preview", authHandler.Middleware(liquidationHandler.HandlePreview))
	apiRouter.HandleFunc("POST /api/liquidations", authHandler.Middleware(liquidationHandler.HandleConfirm))
	apiRouter.HandleFunc("GET /api/liquidations", authHandler.Middleware(liquidationHandler.HandleList))
	apiRouter.HandleFunc("GET /api/liquidations/export", authHandler.Middleware(liquidationHandler.HandleExport))
	apiRouter.HandleFunc("PUT /api/liquidations/{id}", authHandler.Middleware(liquidationHandler.HandleUpdate))
	apiRouter.HandleFunc("DELETE /api/liquidations/{id}", authHandler.Middleware(liquidationHandler.HandleDelete))
	apiRouter.HandleFunc("GET /api/liquidations/{id}/proof", authHandler.Middleware(liquidationHandler.HandleGetProof))

	rootMux.Handle("/api/", apiRouter)
	rootMux.Handle("GET /metrics", promhttp.Handler())

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Liquidador backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		sig := <-shutdown
		logger.L.Info("Shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.L.Error("Server shutdown error", "error", err)
		}
		close(done)
	}()

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}

	<-done
	// All outstanding proof handles are released with the store.
	recordStore.Close()
	logger.L.Info("Server stopped gracefully.")
}
