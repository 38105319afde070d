package service

import (
	"context"
	"errors"
	"math"
	"time"

	"brewtemp/internal/config"
	"brewtemp/internal/models"
	"brewtemp/internal/repository"
	"brewtemp/internal/storage"
)

// Thermal model of the fermenter sitting in the freezer chamber.
const (
	HeatRateCPerSec     = 0.02  // fermenter warming with the heat relay on
	FreezerCoolCPerSec  = 0.05  // chamber cooling with the cool relay on
	CouplingPerSec      = 0.01  // fraction of the fermenter/chamber gap closed per second
	AmbientLeakPerSec   = 0.001 // fraction of the chamber/ambient gap closed per second
	defaultSimulatorDtS = 1.0
)

// SimulatorService advances the board one subinterval per tick: physics,
// probe readings, safety, output accounting, ramp countdown and the LED.
type SimulatorService struct {
	plant     *Plant
	settings  *SettingsService
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	ambientC  float64

	// measurement window accounting
	ticks     int
	heatTicks int
	coolTicks int
	output    int

	rampElapsed time.Duration
}

func NewSimulatorService(plant *Plant, settings *SettingsService, stateRepo repository.StateRepo, eventRepo repository.EventRepo, ambientC float64) *SimulatorService {
	return &SimulatorService{
		plant:     plant,
		settings:  settings,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		ambientC:  ambientC,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			_, _ = s.Step(ctx, now, tick)
		}
	}
}

// Step runs one subinterval of length dt and persists the resulting state.
func (s *SimulatorService) Step(ctx context.Context, now time.Time, dt time.Duration) (models.DeviceState, error) {
	s.plant.mu.Lock()
	defer s.plant.mu.Unlock()

	cfg := s.plant.cfg
	board := s.plant.board

	s.advancePhysics(dt)

	ferm, freezer, faults := s.plant.readings()
	codes := append([]string(nil), faults...)
	if len(faults) > 0 {
		board.AllOff()
	} else {
		codes = append(codes, CheckLimits(cfg.Limits, ferm, freezer, board.Cool.IsOn())...)
	}
	if hasString(codes, models.ErrCodeOverMax) {
		board.Heat.Off()
	}
	if hasString(codes, models.ErrCodeUnderMin) || hasString(codes, models.ErrCodeFreezerDeviation) {
		board.Cool.Off()
	}
	if s.settings.FileState() == config.FSNotMounted {
		codes = append(codes, models.ErrCodeSettingsUnmounted)
	}

	heatOn, coolOn := board.Heat.IsOn(), board.Cool.IsOn()
	s.accountOutput(heatOn, coolOn, dt, cfg.Timing.MeasurementSubintervals)

	cur := s.settings.Current()
	if cur.RampHours > 0 {
		s.rampElapsed += dt
		if s.rampElapsed >= cfg.Timing.RampInterval {
			s.rampElapsed -= cfg.Timing.RampInterval
			next, err := s.settings.Update(func(v models.Settings) models.Settings {
				if v.RampHours > 0 {
					v.RampHours--
				}
				return v
			})
			if err == nil || errors.Is(err, storage.ErrNotMounted) {
				cur = next
				_ = s.eventRepo.Append(ctx, models.DeviceEvent{
					OccurredAt:  now.UTC(),
					Type:        models.EventSettings,
					Description: "Ramp hour elapsed",
					Metadata:    map[string]any{"source": SourceRamp, "ramphours": cur.RampHours},
				})
			}
		}
	} else {
		s.rampElapsed = 0
	}

	board.LED.Tick(len(codes) > 0)

	st, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.DeviceState{}, err
	}
	if st.ID == 0 {
		st.ID = 1
	}
	prevCodes := st.ErrorCodes

	st.Mode = cur.Mode
	st.TargetTempC = cur.TempSet
	st.RampHours = cur.RampHours
	st.FermenterTempC = round2(ferm)
	st.FreezerTempC = round2(freezer)
	st.HeatOn, st.CoolOn = heatOn, coolOn
	st.OutputSeconds = s.output
	st.ErrorCodes = codes
	st.UpdatedAt = now.UTC()

	for _, c := range codes {
		if hasString(prevCodes, c) {
			continue
		}
		_ = s.eventRepo.Append(ctx, models.DeviceEvent{
			OccurredAt:  now.UTC(),
			Type:        models.EventError,
			Description: "Safety condition " + c,
			Metadata: map[string]any{
				"code":        c,
				"fermenter_c": st.FermenterTempC,
				"freezer_c":   st.FreezerTempC,
				"heat":        heatOn,
				"cool":        coolOn,
			},
		})
	}

	if err := s.stateRepo.Save(ctx, st); err != nil {
		return models.DeviceState{}, err
	}
	return st, nil
}

// advancePhysics moves the simulated probes by dt according to the relays.
func (s *SimulatorService) advancePhysics(dt time.Duration) {
	board := s.plant.board
	sec := dt.Seconds()
	if sec <= 0 {
		sec = defaultSimulatorDtS
	}

	ferm, errF := board.Fermenter.Temperature()
	freezer, errZ := board.Freezer.Temperature()
	if errF != nil || errZ != nil {
		return
	}

	freezer += (s.ambientC - freezer) * AmbientLeakPerSec * sec
	if board.Cool.IsOn() {
		freezer -= FreezerCoolCPerSec * sec
	}
	ferm += (freezer - ferm) * CouplingPerSec * sec
	if board.Heat.IsOn() {
		ferm += HeatRateCPerSec * sec
	}

	board.Freezer.Set(freezer)
	board.Fermenter.Set(ferm)
}

// accountOutput accumulates relay on-time and closes the measurement window
// every window ticks. Heating counts positive, cooling negative.
func (s *SimulatorService) accountOutput(heatOn, coolOn bool, dt time.Duration, window int) {
	if heatOn {
		s.heatTicks++
	}
	if coolOn {
		s.coolTicks++
	}
	s.ticks++
	if s.ticks < window {
		return
	}
	s.output = int(math.Round(float64(s.heatTicks-s.coolTicks) * dt.Seconds()))
	s.ticks, s.heatTicks, s.coolTicks = 0, 0, 0
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
