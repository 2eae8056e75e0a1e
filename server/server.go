package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VibeFM/cache"
	"VibeFM/config"
	"VibeFM/core/vibe"
	"VibeFM/db"
	"VibeFM/logger"
	"VibeFM/storage"

	"github.com/gorilla/mux"
)

// Start wires the services together and runs the HTTP server until an
// interrupt arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogOutput,
	})

	ctx := context.Background()

	var analysisCache *cache.AnalysisCache
	if cfg.RedisHost != "" {
		client, err := cache.Connect(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", logger.ErrorField(err))
		} else {
			analysisCache = cache.NewAnalysisCache(client)
			defer client.Close()
		}
	}

	storageSvc, err := storage.NewService(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", logger.ErrorField(err))
	}

	dbSvc, err := db.NewService(ctx, cfg, analysisCache)
	if err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	defer dbSvc.Disconnect(ctx)

	provider := vibe.NewOpenAIProvider(cfg)
	if provider == nil {
		logger.Info("No generation provider configured, using deterministic fallback")
	}
	analyzer := newAnalyzer(provider, dbSvc)

	apiHandler := NewAPIHandler(storageSvc, dbSvc, analyzer, cfg)
	router := NewRouter(apiHandler, storageSvc)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting",
			logger.String("port", cfg.Port),
			logger.String("storage", storageSvc.Type()),
			logger.String("database", dbSvc.Type()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("Server stopped")
}

// newAnalyzer keeps a nil interface out of the analyzer when no provider
// is configured.
func newAnalyzer(provider *vibe.OpenAIProvider, dbSvc *db.Service) *vibe.Analyzer {
	if provider == nil {
		return vibe.NewAnalyzer(nil, dbSvc)
	}
	return vibe.NewAnalyzer(provider, dbSvc)
}

// NewRouter builds the route table with CORS applied to every endpoint.
func NewRouter(h *APIHandler, storageSvc *storage.Service) *mux.Router {
	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/api/upload", h.UploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/analyze-mood", h.AnalyzeMoodHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/analysis/{id}", h.GetAnalysisHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/analysis/{id}", h.UpdateAnalysisHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/analysis/{id}", h.DeleteAnalysisHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/analysis/{id}/favorite", h.ToggleFavoriteHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/analysis/{id}/view", h.IncrementViewHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/recent-analyses", h.RecentAnalysesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/search", h.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/analytics", h.AnalyticsHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/files", h.ListFilesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/files/{filename}/url", h.FileURLHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/storage/stats", h.StorageStatsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/storage/cleanup", h.StorageCleanupHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/storage/maintenance", h.StorageMaintenanceHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/health", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/database/force-mongo", h.ForceMongoConnectionHandler).Methods(http.MethodPost)

	if local := storageSvc.LocalBackend(); local != nil {
		router.PathPrefix("/uploads/").Handler(uploadsPrefixHandler(local))
	}

	return router
}
