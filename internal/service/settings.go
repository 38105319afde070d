package service

import (
	"errors"
	"sync"
	"time"

	"brewtemp/internal/config"
	"brewtemp/internal/models"
	"brewtemp/internal/storage"
)

// SettingsStore persists the settings blob.
type SettingsStore interface {
	Load() (models.Settings, config.FileState, error)
	Save(models.Settings) error
}

// SettingsService holds the live settings in memory and writes every change
// through to the store.
type SettingsService struct {
	mu      sync.RWMutex
	store   SettingsStore
	current models.Settings
	state   config.FileState
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store, current: models.DefaultSettings(), state: config.FileNotFound}
}

// Load reads the store once at boot. Missing, empty and unreadable files
// leave the defaults in place; the returned state tells which case applied.
func (s *SettingsService) Load() (config.FileState, error) {
	v, state, err := s.store.Load()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if err == nil && state == config.FileOK {
		s.current = v
	}
	return state, err
}

func (s *SettingsService) Current() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *SettingsService) FileState() config.FileState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update applies fn and saves the result. When the filesystem is not mounted
// the change is kept in memory only and storage.ErrNotMounted is returned.
func (s *SettingsService) Update(fn func(models.Settings) models.Settings) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.current)
	next.UpdatedAt = time.Now().UTC()

	err := s.store.Save(next)
	if err != nil && !errors.Is(err, storage.ErrNotMounted) {
		return s.current, err
	}
	s.current = next
	if err == nil {
		s.state = config.FileOK
	}
	return next, err
}
