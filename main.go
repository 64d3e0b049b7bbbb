package main

import (
	stdlog "log"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/iconzrus/marketplace-helper/backend/src/alerts"
	"github.com/iconzrus/marketplace-helper/backend/src/analytics"
	"github.com/iconzrus/marketplace-helper/backend/src/config"
	"github.com/iconzrus/marketplace-helper/backend/src/database"
	"github.com/iconzrus/marketplace-helper/backend/src/handlers"
	"github.com/iconzrus/marketplace-helper/backend/src/logger"
	"github.com/iconzrus/marketplace-helper/backend/src/pricing"
	"github.com/iconzrus/marketplace-helper/backend/src/security"
	"github.com/iconzrus/marketplace-helper/backend/src/services"
	"github.com/iconzrus/marketplace-helper/backend/src/snapshots"
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
			"http://localhost:5173": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, Content-Disposition")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Marketplace helper backend starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	apiCache := cache.New(15*time.Minute, 30*time.Minute)

	authService, err := security.NewAuthService(
		config.Cfg.AuthUsername, config.Cfg.AuthPassword,
		config.Cfg.JWTSecret, config.Cfg.TokenExpiry)
	if err != nil {
		stdlog.Fatalf("failed to initialize auth service: %v", err)
	}

	engine := &analytics.Engine{
		DefaultMinMarginPercent: config.Cfg.MinMarginPercent,
		FilterNegativeMargin:    config.Cfg.FilterNegativeMargin,
	}

	wbAPIService := services.NewWbAPIService(database.DB, apiCache,
		config.Cfg.WbAPIBaseURL, config.Cfg.WbAPIToken,
		config.Cfg.WbMockDataPath, config.Cfg.WbMockMode)
	wbStatusService := services.NewWbStatusService(config.Cfg.WbAPIBaseURL)
	importService := &services.ImportService{DB: database.DB}
	demoService := &services.DemoService{DB: database.DB}
	pricingService := &pricing.Service{DB: database.DB, Engine: engine}
	alertService := &alerts.Service{
		DB:                     database.DB,
		Engine:                 engine,
		LowStockThreshold:      config.Cfg.LowStockThreshold,
		MarginPercentThreshold: config.Cfg.AlertMarginPercent,
	}
	snapshotService := &snapshots.Service{DB: database.DB, Engine: engine}

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(database.DB, config.Cfg.LowStockThreshold)
	wbProductHandler := handlers.NewWbProductHandler(database.DB, wbAPIService, wbStatusService)
	analyticsHandler := handlers.NewAnalyticsHandler(database.DB, engine)
	pricingHandler := handlers.NewPricingHandler(pricingService)
	alertsHandler := handlers.NewAlertsHandler(alertService, config.Cfg.AlertPollInterval)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService)
	importHandler := handlers.NewImportHandler(importService)
	demoHandler := handlers.NewDemoHandler(demoService, wbAPIService)

	logger.L.Info("Configuring routes...")
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.HandleHealth)
	mux.HandleFunc("GET /api/hello", handlers.HandleHello)
	mux.HandleFunc("GET /api/wb-status", wbProductHandler.HandleStatus)

	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)

	mux.HandleFunc("GET /api/products", productHandler.HandleList)
	mux.HandleFunc("POST /api/products", productHandler.HandleCreate)
	mux.HandleFunc("GET /api/products/low-stock", productHandler.HandleLowStock)
	mux.HandleFunc("GET /api/products/{id}", productHandler.HandleGet)
	mux.HandleFunc("PUT /api/products/{id}", productHandler.HandleUpdate)
	mux.HandleFunc("PATCH /api/products/{id}/costs", productHandler.HandleUpdateCosts)
	mux.HandleFunc("DELETE /api/products/{id}", productHandler.HandleDelete)
	mux.HandleFunc("POST /api/products/import", importHandler.HandleImport)

	mux.HandleFunc("GET /api/wb-products", wbProductHandler.HandleList)
	mux.HandleFunc("GET /api/wb-products/{id}", wbProductHandler.HandleGet)
	mux.HandleFunc("GET /api/wb-products/nm/{nmId}", wbProductHandler.HandleGetByNmID)
	mux.HandleFunc("DELETE /api/wb-products/{id}", wbProductHandler.HandleDelete)

	mux.HandleFunc("GET /api/wb-api/ping", wbProductHandler.HandlePing)
	mux.HandleFunc("GET /api/wb-api/seller-info", wbProductHandler.HandleSellerInfo)
	mux.HandleFunc("GET /api/wb-api/goods", wbProductHandler.HandleGoods)
	mux.HandleFunc("POST /api/wb-api/sync", wbProductHandler.HandleSync)
	mux.HandleFunc("GET /api/wb-api/mock-mode", wbProductHandler.HandleGetMockMode)
	mux.HandleFunc("POST /api/wb-api/mock-mode", wbProductHandler.HandleSetMockMode)
	mux.HandleFunc("POST /api/wb-api/token", wbProductHandler.HandleSetToken)

	mux.HandleFunc("GET /api/analytics/report", analyticsHandler.HandleReport)
	mux.HandleFunc("GET /api/analytics/export", analyticsHandler.HandleExportCSV)
	mux.HandleFunc("GET /api/analytics/validation", analyticsHandler.HandleValidation)

	mux.HandleFunc("GET /api/pricing/recommendations", pricingHandler.HandleRecommendations)
	mux.HandleFunc("POST /api/pricing/batch-update", pricingHandler.HandleBatchUpdate)

	mux.HandleFunc("GET /api/alerts", alertsHandler.HandleList)
	mux.HandleFunc("GET /api/alerts/stream", alertsHandler.HandleStream)

	mux.HandleFunc("POST /api/snapshots", snapshotHandler.HandleTake)
	mux.HandleFunc("GET /api/snapshots", snapshotHandler.HandleHistory)
	mux.HandleFunc("GET /api/snapshots/dates", snapshotHandler.HandleDates)

	mux.HandleFunc("POST /api/demo/auto-fill", demoHandler.HandleAutoFill)
	mux.HandleFunc("POST /api/demo/fill-random", demoHandler.HandleFillRandom)
	mux.HandleFunc("POST /api/demo/generate", demoHandler.HandleGenerate)
	mux.HandleFunc("DELETE /api/demo", demoHandler.HandleDeleteAll)

	handler := enableCORS(rateLimitMiddleware(handlers.RequireAuth(authService, mux)))

	server := &http.Server{
		Addr:         ":" + config.Cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the alerts SSE stream stays open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "port", config.Cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("server failed: %v", err)
	}
}
