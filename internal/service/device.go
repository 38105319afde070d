package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brewtemp/internal/config"
	"brewtemp/internal/models"
	"brewtemp/internal/repository"
	"brewtemp/internal/storage"
)

var (
	ErrRelayConflict     = errors.New("heat and cool relays cannot be on together")
	ErrModeForbids       = errors.New("relay not allowed in current mode")
	ErrSafetyInterlock   = errors.New("relay blocked by safety limit")
	ErrInvalidMode       = errors.New("invalid mode: must be STANDBY, HEAT, COOL or HEAT_COOL")
	ErrTempSetOutOfRange = errors.New("tempset outside temperature limits")
	ErrInvalidRampHours  = errors.New("ramphours must not be negative")
)

type DeviceService struct {
	plant     *Plant
	settings  *SettingsService
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
}

func NewDeviceService(plant *Plant, settings *SettingsService, stateRepo repository.StateRepo, eventRepo repository.EventRepo) *DeviceService {
	return &DeviceService{plant: plant, settings: settings, stateRepo: stateRepo, eventRepo: eventRepo}
}

func (s *DeviceService) Config() config.DeviceConfiguration { return s.plant.Config() }

func (s *DeviceService) Settings(context.Context) models.Settings { return s.settings.Current() }

// loadState returns the persisted snapshot, initialising the single row.
func (s *DeviceService) loadState(ctx context.Context) (models.DeviceState, error) {
	st, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.DeviceState{}, err
	}
	if st.ID == 0 {
		cur := s.settings.Current()
		st = models.DeviceState{ID: 1, Mode: cur.Mode, TargetTempC: cur.TempSet, RampHours: cur.RampHours}
	}
	return st, nil
}

// Boot records the boot event and the setup-mode flag.
func (s *DeviceService) Boot(ctx context.Context, info BootInfo) error {
	s.plant.mu.Lock()
	defer s.plant.mu.Unlock()

	now := time.Now().UTC()
	st, err := s.loadState(ctx)
	if err != nil {
		return err
	}
	cur := s.settings.Current()
	st.Mode = cur.Mode
	st.TargetTempC = cur.TempSet
	st.RampHours = cur.RampHours
	st.ConfigMode = info.ConfigMode
	st.HeatOn, st.CoolOn = false, false
	st.UpdatedAt = now
	if err := s.stateRepo.Save(ctx, st); err != nil {
		return err
	}

	return s.eventRepo.Append(ctx, models.DeviceEvent{
		OccurredAt:  now,
		Type:        models.EventBoot,
		Description: "Device booted (" + info.Reason + ")",
		Metadata: map[string]any{
			"reason":      info.Reason,
			"file_state":  info.FileState,
			"config_mode": info.ConfigMode,
			"revision":    info.Revision,
		},
	})
}

// SetRelays switches the relays on explicit request. The mode must allow each
// relay that is turned on and the fermenter reading must be inside the limits.
func (s *DeviceService) SetRelays(ctx context.Context, cmd models.RelayCommand) (models.DeviceState, error) {
	if cmd.Heat && cmd.Cool {
		return models.DeviceState{}, ErrRelayConflict
	}

	// ApplySettings changes the mode under the same lock.
	s.plant.mu.Lock()
	defer s.plant.mu.Unlock()

	mode := s.settings.Current().Mode
	if cmd.Heat && !mode.AllowsHeat() {
		return models.DeviceState{}, fmt.Errorf("%w: heat in %s", ErrModeForbids, mode)
	}
	if cmd.Cool && !mode.AllowsCool() {
		return models.DeviceState{}, fmt.Errorf("%w: cool in %s", ErrModeForbids, mode)
	}

	ferm, freezer, faults := s.plant.readings()
	if interlock(s.plant.cfg.Limits, ferm, len(faults) > 0, cmd) {
		return models.DeviceState{}, fmt.Errorf("%w: fermenter at %.1f°C", ErrSafetyInterlock, ferm)
	}

	now := time.Now().UTC()
	st, err := s.loadState(ctx)
	if err != nil {
		return models.DeviceState{}, err
	}

	board := s.plant.board
	board.Heat.Set(cmd.Heat)
	board.Cool.Set(cmd.Cool)

	prevHeat, prevCool := st.HeatOn, st.CoolOn
	st.HeatOn = board.Heat.IsOn()
	st.CoolOn = board.Cool.IsOn()
	st.FermenterTempC = ferm
	st.FreezerTempC = freezer
	st.UpdatedAt = now
	if err := s.stateRepo.Save(ctx, st); err != nil {
		return models.DeviceState{}, err
	}

	if prevHeat == st.HeatOn && prevCool == st.CoolOn {
		return st, nil
	}
	return st, s.eventRepo.Append(ctx, models.DeviceEvent{
		OccurredAt:  now,
		Type:        models.EventRelay,
		Description: fmt.Sprintf("Relays set: heat=%t cool=%t", st.HeatOn, st.CoolOn),
		Metadata: map[string]any{
			"heat":        st.HeatOn,
			"cool":        st.CoolOn,
			"fermenter_c": ferm,
		},
	})
}

func (s *DeviceService) validatePatch(p models.SettingsPatch) error {
	limits := s.plant.cfg.Limits
	if p.Mode != nil && !p.Mode.Valid() {
		return ErrInvalidMode
	}
	if p.TempSet != nil && (*p.TempSet < limits.MinTemperature || *p.TempSet > limits.MaxTemperature) {
		return fmt.Errorf("%w: %.1f not in [%.1f, %.1f]", ErrTempSetOutOfRange, *p.TempSet, limits.MinTemperature, limits.MaxTemperature)
	}
	if p.RampHours != nil && *p.RampHours < 0 {
		return ErrInvalidRampHours
	}
	return nil
}

// ApplySettings validates and persists a settings change. Relays the new
// mode no longer allows are switched off.
func (s *DeviceService) ApplySettings(ctx context.Context, p models.SettingsPatch, source string) (models.Settings, error) {
	if err := s.validatePatch(p); err != nil {
		return models.Settings{}, err
	}
	if p.Empty() {
		return s.settings.Current(), nil
	}

	s.plant.mu.Lock()
	defer s.plant.mu.Unlock()

	prev := s.settings.Current()
	next, err := s.settings.Update(p.Apply)
	if err != nil && !errors.Is(err, storage.ErrNotMounted) {
		return models.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	now := time.Now().UTC()
	st, err := s.loadState(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	board := s.plant.board
	if !next.Mode.AllowsHeat() {
		board.Heat.Off()
	}
	if !next.Mode.AllowsCool() {
		board.Cool.Off()
	}
	st.HeatOn = board.Heat.IsOn()
	st.CoolOn = board.Cool.IsOn()
	st.Mode = next.Mode
	st.TargetTempC = next.TempSet
	st.RampHours = next.RampHours
	st.UpdatedAt = now
	if err := s.stateRepo.Save(ctx, st); err != nil {
		return models.Settings{}, err
	}

	ev := models.DeviceEvent{
		OccurredAt:  now,
		Type:        models.EventSettings,
		Description: "Settings updated",
		Metadata:    settingsChanges(prev, next, source),
	}
	if prev.Mode != next.Mode {
		ev.Type = models.EventModeChange
		ev.Description = fmt.Sprintf("Mode changed from %s to %s", prev.Mode, next.Mode)
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		return models.Settings{}, err
	}
	return next, nil
}

// settingsChanges lists changed fields. Credentials are reported by name only.
func settingsChanges(prev, next models.Settings, source string) map[string]any {
	m := map[string]any{"source": source}
	if prev.Mode != next.Mode {
		m["mode"] = map[string]any{"from": prev.Mode, "to": next.Mode}
	}
	if prev.TempSet != next.TempSet {
		m["tempset"] = next.TempSet
	}
	if prev.RampHours != next.RampHours {
		m["ramphours"] = next.RampHours
	}
	if prev.Offset != next.Offset {
		m["offset"] = next.Offset
	}
	if prev.DeviceLabel != next.DeviceLabel {
		m["device_label"] = next.DeviceLabel
	}
	var creds []string
	if prev.WiFiSSID != next.WiFiSSID || prev.WiFiPassword != next.WiFiPassword {
		creds = append(creds, "wifi")
	}
	if prev.Token != next.Token {
		creds = append(creds, "token")
	}
	if len(creds) > 0 {
		m["credentials"] = creds
	}
	return m
}
