package service

import (
	"context"
	"time"

	"brewtemp/internal/models"
	"brewtemp/internal/repository"
)

type MonitoringService struct {
	stateRepo repository.StateRepo
	ambientC  float64
}

func NewMonitoringService(stateRepo repository.StateRepo, ambientC float64) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo, ambientC: ambientC}
}

// GetState returns the latest persisted snapshot, or a STANDBY baseline
// before the first one is written.
func (s *MonitoringService) GetState(ctx context.Context) (models.DeviceState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.DeviceState{}, err
	}
	if state.ID == 0 {
		return s.baselineState(), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

func (s *MonitoringService) baselineState() models.DeviceState {
	return models.DeviceState{
		ID:             1,
		Mode:           models.ModeStandby,
		FermenterTempC: s.ambientC,
		FreezerTempC:   s.ambientC,
		UpdatedAt:      time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
