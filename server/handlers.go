package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"VibeFM/config"
	"VibeFM/core/vibe"
	"VibeFM/db"
	"VibeFM/logger"
	"VibeFM/model"
	"VibeFM/storage"

	"github.com/gorilla/mux"
)

const maxUploadSize = 10 << 20 // 10MB

// APIHandler holds the services the HTTP routes delegate to.
type APIHandler struct {
	storage  *storage.Service
	db       *db.Service
	analyzer *vibe.Analyzer
	cfg      *config.Config
}

func NewAPIHandler(storageSvc *storage.Service, dbSvc *db.Service, analyzer *vibe.Analyzer, cfg *config.Config) *APIHandler {
	return &APIHandler{
		storage:  storageSvc,
		db:       dbSvc,
		analyzer: analyzer,
		cfg:      cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// UploadHandler accepts one multipart file under the "media" field and
// stores it through the active backend.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "File too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("media")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if !storage.IsValidFileType(header.Filename) {
		writeError(w, http.StatusBadRequest, "Unsupported file type")
		return
	}

	filename := storage.GenerateUniqueFilename(header.Filename)
	info, err := h.storage.UploadFile(r.Context(), file, header.Size, filename, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("Upload failed", logger.String("filename", filename), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"file": map[string]interface{}{
			"filename":     info.Filename,
			"originalname": header.Filename,
			"mimetype":     info.ContentType,
			"size":         info.Size,
			"path":         info.URL,
		},
		"message": "File uploaded successfully",
	})
}

// AnalyzeMoodHandler runs the analysis pipeline on an emotion-score list.
func (h *APIHandler) AnalyzeMoodHandler(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.analyzer.Analyze(r.Context(), &req)
	if err == vibe.ErrNoEmotions {
		writeError(w, http.StatusBadRequest, "Invalid emotions data")
		return
	}
	if err != nil {
		logger.Error("Analysis failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	record, err := h.db.GetAnalysis(r.Context(), id)
	if err != nil {
		logger.Error("Get analysis failed", logger.String("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to retrieve analysis")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *APIHandler) UpdateAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var update db.AnalysisUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.MoodCategory != nil && !model.IsValidMoodCategory(*update.MoodCategory) {
		writeError(w, http.StatusBadRequest, "Invalid mood category")
		return
	}

	found, err := h.db.UpdateAnalysis(r.Context(), id, update)
	if err != nil {
		logger.Error("Update analysis failed", logger.String("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to update analysis")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *APIHandler) DeleteAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	deleted, err := h.db.DeleteAnalysis(r.Context(), id)
	if err != nil {
		logger.Error("Delete analysis failed", logger.String("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete analysis")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *APIHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	favorite, found, err := h.db.ToggleFavorite(r.Context(), id)
	if err != nil {
		logger.Error("Toggle favorite failed", logger.String("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to toggle favorite")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"isFavorite": favorite,
	})
}

func (h *APIHandler) IncrementViewHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	found, err := h.db.IncrementViewCount(r.Context(), id)
	if err != nil {
		logger.Error("Increment view failed", logger.String("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to increment view count")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *APIHandler) RecentAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := h.db.GetRecentAnalyses(r.Context(), limit)
	if err != nil {
		logger.Error("Get recent analyses failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to retrieve analyses")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := db.SearchFilters{
		Emotion:      q.Get("emotion"),
		Mood:         q.Get("mood"),
		Keyword:      q.Get("keyword"),
		UserID:       q.Get("userId"),
		FavoriteOnly: q.Get("favorite") == "true",
	}
	if raw := q.Get("dateFrom"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateFrom = t
		}
	}
	if raw := q.Get("dateTo"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.DateTo = t
		}
	}
	if raw := q.Get("page"); raw != "" {
		filters.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("limit"); raw != "" {
		filters.Limit, _ = strconv.Atoi(raw)
	}

	result, err := h.db.SearchAnalyses(r.Context(), filters)
	if err != nil {
		logger.Error("Search failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.db.GetAnalytics(r.Context())
	if err != nil {
		logger.Error("Analytics failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (h *APIHandler) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	files, err := h.storage.ListFiles(r.Context())
	if err != nil {
		logger.Error("List files failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

func (h *APIHandler) FileURLHandler(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	expires := time.Hour
	if raw := r.URL.Query().Get("expires"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			expires = time.Duration(seconds) * time.Second
		}
	}

	url, err := h.storage.GeneratePresignedURL(r.Context(), filename, expires)
	if err != nil {
		logger.Error("Presigned URL failed", logger.String("filename", filename), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate URL")
		return
	}
	if url == "" {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":       url,
		"expiresIn": int(expires.Seconds()),
	})
}

func (h *APIHandler) StorageStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.storage.GetStorageStats(r.Context())
	if err != nil {
		logger.Error("Storage stats failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to compute storage stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"type":           h.storage.Type(),
		"totalFiles":     stats.TotalFiles,
		"totalSize":      stats.TotalSize,
		"totalSizeHuman": storage.FormatFileSize(stats.TotalSize),
		"averageSize":    stats.AverageFileSize,
		"oldestFile":     stats.OldestFile,
		"newestFile":     stats.NewestFile,
	})
}

func (h *APIHandler) StorageCleanupHandler(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid days value")
			return
		}
		days = parsed
	}

	deleted, err := h.storage.CleanupOldFiles(r.Context(), days)
	if err != nil {
		logger.Error("Cleanup failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"deletedFiles": deleted,
	})
}

func (h *APIHandler) StorageMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	report := h.storage.PerformMaintenance(r.Context())
	writeJSON(w, http.StatusOK, report)
}

// HealthHandler aggregates storage and database health. Overall status is
// degraded when either subsystem reports a problem.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	storageHealth := h.storage.GetHealth(r.Context())
	dbHealth := h.db.GetHealth(r.Context())

	status := "healthy"
	if storageHealth.Status != "healthy" || dbHealth.Status != "healthy" {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"storage":   storageHealth,
		"database":  dbHealth,
	})
}

// ForceMongoConnectionHandler reconnects the database service to MongoDB
// at an operator's request, replacing a fallback flat-file backend.
func (h *APIHandler) ForceMongoConnectionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.db.ForceMongoConnection(r.Context(), h.cfg); err != nil {
		if errors.Is(err, db.ErrMongoNotConfigured) {
			writeError(w, http.StatusBadRequest, "MONGODB_URI not configured")
			return
		}
		logger.Error("Force MongoDB connection failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to switch database backend")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"backend": h.db.Type(),
		"message": fmt.Sprintf("Database backend is now %s", h.db.Type()),
	})
}

// uploadsPrefixHandler serves locally stored files. Only wired when the
// local backend is active; object-store files are reached by URL.
func uploadsPrefixHandler(local *storage.LocalBackend) http.Handler {
	fileServer := http.FileServer(http.Dir(local.UploadsDir()))
	return http.StripPrefix("/uploads/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "..") {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		fileServer.ServeHTTP(w, r)
	}))
}
