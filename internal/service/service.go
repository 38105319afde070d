package service

import (
	"context"
	"time"

	"brewtemp/internal/config"
	"brewtemp/internal/models"
	"brewtemp/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Device exposes the control operations: manual relay commands and
// settings changes.
type Device interface {
	SetRelays(ctx context.Context, cmd models.RelayCommand) (models.DeviceState, error)
	ApplySettings(ctx context.Context, p models.SettingsPatch, source string) (models.Settings, error)
	Settings(ctx context.Context) models.Settings
	Config() config.DeviceConfiguration
	Boot(ctx context.Context, info BootInfo) error
}

// Monitoring exposes read-only state.
type Monitoring interface {
	GetState(ctx context.Context) (models.DeviceState, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Simulator runs the board physics. Stop it by cancelling ctx.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Device
	Monitoring
	EventLog
	Simulator
	Authorization
}

func NewService(repos *repository.Repository, plant *Plant, settings *SettingsService, cfg *config.Config) *Service {
	return &Service{
		Device:        NewDeviceService(plant, settings, repos.StateRepo, repos.EventRepo),
		Monitoring:    NewMonitoringService(repos.StateRepo, cfg.Simulator.AmbientC),
		EventLog:      NewEventLogService(repos.EventRepo),
		Simulator:     NewSimulatorService(plant, settings, repos.StateRepo, repos.EventRepo, cfg.Simulator.AmbientC),
		Authorization: NewAuthService(repos.Auth, cfg.Auth),
	}
}
