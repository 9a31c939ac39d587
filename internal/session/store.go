package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/models"
)

const DefaultKey = "auth_token"

// Store persists the raw bearer token under one fixed key. Get reports
// absence both when nothing is stored and when no storage is available.
type Store interface {
	Save(ctx context.Context, token string) error
	Get(ctx context.Context) (string, bool)
	Remove(ctx context.Context) error
	IsPresent(ctx context.Context) bool
}

// MemoryStore keeps the token for the lifetime of the process only.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.set = token, true
	return nil
}

func (s *MemoryStore) Get(_ context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set
}

func (s *MemoryStore) Remove(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.set = "", false
	return nil
}

func (s *MemoryStore) IsPresent(ctx context.Context) bool {
	_, ok := s.Get(ctx)
	return ok
}

// GormStore survives process restarts. A nil DB behaves like an environment
// without persistent storage: reads are absent and writes are dropped.
type GormStore struct {
	DB  *gorm.DB
	Key string
}

func NewGormStore(db *gorm.DB, key string) *GormStore {
	if key == "" {
		key = DefaultKey
	}
	return &GormStore{DB: db, Key: key}
}

func (s *GormStore) Save(ctx context.Context, token string) error {
	if s.DB == nil {
		return nil
	}
	row := models.StoredToken{Key: s.Key, Value: token, UpdatedAt: time.Now().UTC()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormStore) Get(ctx context.Context) (string, bool) {
	if s.DB == nil {
		return "", false
	}
	var row models.StoredToken
	err := s.DB.WithContext(ctx).Where("storage_key = ?", s.Key).First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.FromContext(ctx).Warn("token_store_read_failed", "error", err)
		}
		return "", false
	}
	return row.Value, true
}

func (s *GormStore) Remove(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.WithContext(ctx).Where("storage_key = ?", s.Key).Delete(&models.StoredToken{}).Error
}

func (s *GormStore) IsPresent(ctx context.Context) bool {
	_, ok := s.Get(ctx)
	return ok
}
