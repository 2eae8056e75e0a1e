package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"VibeFM/cache"
	"VibeFM/config"
	"VibeFM/logger"
	"VibeFM/model"
)

// ErrNotInitialized is returned when a service method runs before a
// backend has been selected.
var ErrNotInitialized = errors.New("database service not initialized")

// ErrMongoNotConfigured is returned by ForceMongoConnection when no
// MongoDB URI is configured.
var ErrMongoNotConfigured = errors.New("MONGODB_URI not provided")

// Service fronts whichever backend initialization selected. MongoDB is
// preferred when a URI is configured; the flat-file store is the fallback
// and the last resort. A Redis cache, when present, shortcuts the recent
// list and analytics reads.
type Service struct {
	mu      sync.RWMutex
	backend Backend
	cache   *cache.AnalysisCache
}

// NewService selects and connects a backend. A Mongo connection failure
// degrades to the flat-file store; a flat-file failure is fatal.
func NewService(ctx context.Context, cfg *config.Config, analysisCache *cache.AnalysisCache) (*Service, error) {
	s := &Service{cache: analysisCache}

	if cfg.MongoURI != "" {
		mongoBackend := NewMongoBackend(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoConnectTimeout)
		if err := mongoBackend.Connect(ctx); err != nil {
			logger.Warn("MongoDB unavailable, falling back to JSON database",
				logger.ErrorField(err))
		} else {
			s.backend = mongoBackend
			return s, nil
		}
	}

	jsonBackend := NewJSONBackend(cfg.DataDir)
	if err := jsonBackend.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize json database: %w", err)
	}
	s.backend = jsonBackend
	logger.Info("Using JSON database", logger.String("dataDir", cfg.DataDir))
	return s, nil
}

// Type reports the active backend kind.
func (s *Service) Type() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.backend == nil {
		return "none"
	}
	return s.backend.Type()
}

// ForceMongoConnection swaps the active backend for a fresh MongoDB
// connection, disconnecting whatever was in use. Recovery path for
// deployments that fell back to the flat-file store at startup.
func (s *Service) ForceMongoConnection(ctx context.Context, cfg *config.Config) error {
	if cfg.MongoURI == "" {
		return ErrMongoNotConfigured
	}

	mongoBackend := NewMongoBackend(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoConnectTimeout)
	if err := mongoBackend.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	s.mu.Lock()
	old := s.backend
	s.backend = mongoBackend
	s.mu.Unlock()

	if old != nil {
		if err := old.Disconnect(ctx); err != nil {
			logger.Warn("Failed to disconnect previous database backend",
				logger.ErrorField(err))
		}
	}
	s.cache.InvalidateAll(ctx)
	logger.Info("Database backend forced to MongoDB", logger.String("database", cfg.MongoDatabase))
	return nil
}

func (s *Service) current() (Backend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.backend == nil {
		return nil, ErrNotInitialized
	}
	return s.backend, nil
}

func (s *Service) Disconnect(ctx context.Context) error {
	backend, err := s.current()
	if err != nil {
		return nil
	}
	return backend.Disconnect(ctx)
}

func (s *Service) SaveAnalysis(ctx context.Context, record *model.AnalysisRecord) (string, error) {
	backend, err := s.current()
	if err != nil {
		return "", err
	}
	id, err := backend.SaveAnalysis(ctx, record)
	if err != nil {
		return "", err
	}
	s.cache.InvalidateAll(ctx)
	return id, nil
}

func (s *Service) GetAnalysis(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	backend, err := s.current()
	if err != nil {
		return nil, err
	}
	return backend.GetAnalysis(ctx, id)
}

func (s *Service) GetRecentAnalyses(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	backend, err := s.current()
	if err != nil {
		return nil, err
	}
	if records, ok := s.cache.GetRecent(ctx, limit); ok {
		return records, nil
	}
	records, err := backend.GetRecentAnalyses(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetRecent(ctx, limit, records)
	return records, nil
}

func (s *Service) SearchAnalyses(ctx context.Context, filters SearchFilters) (*SearchResult, error) {
	backend, err := s.current()
	if err != nil {
		return nil, err
	}
	return backend.SearchAnalyses(ctx, filters)
}

func (s *Service) GetAnalytics(ctx context.Context) (*model.Analytics, error) {
	backend, err := s.current()
	if err != nil {
		return nil, err
	}
	if analytics, ok := s.cache.GetAnalytics(ctx); ok {
		return analytics, nil
	}
	analytics, err := backend.GetAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetAnalytics(ctx, analytics)
	return analytics, nil
}

func (s *Service) DeleteAnalysis(ctx context.Context, id string) (bool, error) {
	backend, err := s.current()
	if err != nil {
		return false, err
	}
	deleted, err := backend.DeleteAnalysis(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.cache.InvalidateAll(ctx)
	}
	return deleted, nil
}

func (s *Service) UpdateAnalysis(ctx context.Context, id string, update AnalysisUpdate) (bool, error) {
	backend, err := s.current()
	if err != nil {
		return false, err
	}
	updated, err := backend.UpdateAnalysis(ctx, id, update)
	if err != nil {
		return false, err
	}
	if updated {
		s.cache.InvalidateAll(ctx)
	}
	return updated, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, id string) (bool, bool, error) {
	backend, err := s.current()
	if err != nil {
		return false, false, err
	}
	favorite, found, err := backend.ToggleFavorite(ctx, id)
	if err != nil {
		return false, false, err
	}
	if found {
		s.cache.InvalidateAll(ctx)
	}
	return favorite, found, nil
}

func (s *Service) IncrementViewCount(ctx context.Context, id string) (bool, error) {
	backend, err := s.current()
	if err != nil {
		return false, err
	}
	found, err := backend.IncrementViewCount(ctx, id)
	if err != nil {
		return false, err
	}
	if found {
		s.cache.InvalidateAll(ctx)
	}
	return found, nil
}

func (s *Service) SaveUser(ctx context.Context, user *model.UserRecord) (string, error) {
	backend, err := s.current()
	if err != nil {
		return "", err
	}
	return backend.SaveUser(ctx, user)
}

func (s *Service) GetUser(ctx context.Context, id string) (*model.UserRecord, error) {
	backend, err := s.current()
	if err != nil {
		return nil, err
	}
	return backend.GetUser(ctx, id)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	backend, err := s.current()
	if err != nil {
		return nil, err
	}
	return backend.GetUserByEmail(ctx, email)
}

func (s *Service) UpdateUser(ctx context.Context, id string, update UserUpdate) (bool, error) {
	backend, err := s.current()
	if err != nil {
		return false, err
	}
	return backend.UpdateUser(ctx, id, update)
}

func (s *Service) GetHealth(ctx context.Context) *Health {
	backend, err := s.current()
	if err != nil {
		return &Health{Status: "error", Type: "none", Error: err.Error()}
	}
	return backend.GetHealth(ctx)
}
