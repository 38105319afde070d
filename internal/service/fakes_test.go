package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"brewtemp/internal/config"
	"brewtemp/internal/hardware"
	"brewtemp/internal/models"
)

type memStateRepo struct {
	mu      sync.Mutex
	state   models.DeviceState
	loadErr error
	saveErr error
	saves   int
}

func (r *memStateRepo) Load(context.Context) (models.DeviceState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.loadErr
}

func (r *memStateRepo) Save(_ context.Context, s models.DeviceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.state = s
	return nil
}

type memEventRepo struct {
	mu        sync.Mutex
	events    []models.DeviceEvent
	appendErr error

	gotFrom, gotTo time.Time
	gotType        string
	listErr        error
}

func (r *memEventRepo) Append(_ context.Context, e models.DeviceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.appendErr
}

func (r *memEventRepo) List(_ context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gotFrom, r.gotTo, r.gotType = from, to, typ
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.events, nil
}

func (r *memEventRepo) ofType(typ string) []models.DeviceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DeviceEvent
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type memSettingsStore struct {
	saved   models.Settings
	state   config.FileState
	loadErr error
	saveErr error
	saves   int
}

func (s *memSettingsStore) Load() (models.Settings, config.FileState, error) {
	return s.saved, s.state, s.loadErr
}

func (s *memSettingsStore) Save(v models.Settings) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.saved = v
	return nil
}

type rig struct {
	cfg      config.DeviceConfiguration
	board    *hardware.Board
	plant    *Plant
	store    *memSettingsStore
	settings *SettingsService
	states   *memStateRepo
	events   *memEventRepo
	device   *DeviceService
}

// newRig builds a device with the canonical table, probes at ambientC and the
// given mode.
func newRig(t *testing.T, mode models.Mode, ambientC float64) *rig {
	t.Helper()
	cfg := config.Default()
	board := hardware.NewBoard(cfg, hardware.NewMemoryGPIO(), ambientC)
	plant := NewPlant(cfg, board)

	store := &memSettingsStore{state: config.FileOK}
	s := models.DefaultSettings()
	s.Mode = mode
	store.saved = s
	settings := NewSettingsService(store)
	if _, err := settings.Load(); err != nil {
		t.Fatalf("settings.Load: %v", err)
	}

	states := &memStateRepo{}
	events := &memEventRepo{}
	return &rig{
		cfg:      cfg,
		board:    board,
		plant:    plant,
		store:    store,
		settings: settings,
		states:   states,
		events:   events,
		device:   NewDeviceService(plant, settings, states, events),
	}
}

func ptr[T any](v T) *T { return &v }
