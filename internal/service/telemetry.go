package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"brewtemp/internal/config"
	"brewtemp/internal/models"
	"brewtemp/internal/repository"
	"brewtemp/internal/telemetry"
)

// TelemetryService publishes readings to the cloud and applies the control
// variables read back from it. A control is applied when its cloud value
// changes, so local changes are kept until the cloud value moves. Cycle is
// not safe for concurrent use.
type TelemetryService struct {
	transport  telemetry.Transport
	failures   *telemetry.FailureTracker
	device     Device
	monitoring Monitoring
	eventRepo  repository.EventRepo
	labels     config.Labels

	seen map[string]float64 // last handled cloud value per control label
}

func NewTelemetryService(tr telemetry.Transport, cfg config.TelemetryConfig, device Device, monitoring Monitoring, eventRepo repository.EventRepo) *TelemetryService {
	return &TelemetryService{
		transport:  tr,
		failures:   telemetry.NewFailureTracker(cfg.MaxConsecutiveFailures),
		device:     device,
		monitoring: monitoring,
		eventRepo:  eventRepo,
		labels:     cfg.Labels,
		seen:       make(map[string]float64),
	}
}

// Failures is the current consecutive failure count.
func (s *TelemetryService) Failures() int { return s.failures.Count() }

// Run performs a cycle every interval until ctx is canceled. onErr, if set,
// receives every cycle error.
func (s *TelemetryService) Run(ctx context.Context, interval time.Duration, onErr func(error)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Cycle(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

// cloudControl is one control variable whose cloud value changed.
type cloudControl struct {
	label string
	value float64
	patch models.SettingsPatch
	err   error // the value does not decode to a setting
}

// Cycle publishes the current readings, then reads every control variable of
// this revision and applies each one whose cloud value changed.
func (s *TelemetryService) Cycle(ctx context.Context) error {
	st, err := s.monitoring.GetState(ctx)
	if err != nil {
		return err
	}
	cur := s.device.Settings(ctx)
	device := cur.DeviceLabel

	values := map[string]float64{
		s.labels.Fermenter: st.FermenterTempC,
		s.labels.Freezer:   st.FreezerTempC,
		s.labels.Output:    float64(st.OutputSeconds),
	}
	if err := s.transport.Publish(ctx, device, values); err != nil {
		return s.fail(ctx, device, err)
	}

	changed, err := s.readControls(ctx, device, cur)
	if err != nil {
		return s.fail(ctx, device, err)
	}
	s.failures.Reset()

	var errs []error
	for _, c := range changed {
		err := c.err
		if err == nil && !c.patch.Empty() {
			_, err = s.device.ApplySettings(ctx, c.patch, SourceCloud)
		}
		switch {
		case err == nil:
			s.seen[c.label] = c.value
		case rejected(err):
			// logged once; the same value is not retried
			s.seen[c.label] = c.value
			s.reject(ctx, c, err)
			errs = append(errs, fmt.Errorf("apply cloud %s: %w", c.label, err))
		default:
			errs = append(errs, fmt.Errorf("apply cloud %s: %w", c.label, err))
		}
	}
	return errors.Join(errs...)
}

func rejected(err error) bool {
	return errors.Is(err, ErrInvalidMode) || errors.Is(err, ErrTempSetOutOfRange) || errors.Is(err, ErrInvalidRampHours)
}

func (s *TelemetryService) reject(ctx context.Context, c cloudControl, err error) {
	_ = s.eventRepo.Append(ctx, models.DeviceEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventTelemetry,
		Description: "Rejected cloud " + c.label,
		Metadata:    map[string]any{"label": c.label, "value": c.value, "error": err.Error()},
	})
}

// readControls returns the control variables whose cloud value differs from
// the last one handled. Labels with no value yet are skipped. The patch of a
// control is empty when the value already matches cur.
func (s *TelemetryService) readControls(ctx context.Context, device string, cur models.Settings) ([]cloudControl, error) {
	fields := []struct {
		label string
		build func(v float64) (models.SettingsPatch, error)
	}{
		{s.labels.Mode, func(v float64) (models.SettingsPatch, error) {
			m, err := models.ModeFromCode(int(math.Round(v)))
			if err != nil {
				return models.SettingsPatch{}, fmt.Errorf("%w: %v", ErrInvalidMode, err)
			}
			if m == cur.Mode {
				return models.SettingsPatch{}, nil
			}
			return models.SettingsPatch{Mode: &m}, nil
		}},
		{s.labels.TempSet, func(v float64) (models.SettingsPatch, error) {
			if v == cur.TempSet {
				return models.SettingsPatch{}, nil
			}
			return models.SettingsPatch{TempSet: &v}, nil
		}},
		{s.labels.Ramp, func(v float64) (models.SettingsPatch, error) {
			h := int(math.Round(v))
			if h == cur.RampHours {
				return models.SettingsPatch{}, nil
			}
			return models.SettingsPatch{RampHours: &h}, nil
		}},
		{s.labels.Offset, func(v float64) (models.SettingsPatch, error) {
			if v == cur.Offset {
				return models.SettingsPatch{}, nil
			}
			return models.SettingsPatch{Offset: &v}, nil
		}},
	}

	var out []cloudControl
	for _, f := range fields {
		if f.label == "" {
			continue
		}
		v, err := s.transport.LastValue(ctx, device, f.label)
		if errors.Is(err, telemetry.ErrNoValue) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if prev, ok := s.seen[f.label]; ok && prev == v {
			continue
		}
		c := cloudControl{label: f.label, value: v}
		c.patch, c.err = f.build(v)
		out = append(out, c)
	}
	return out, nil
}

// fail counts a failure and resubscribes once the limit is reached.
func (s *TelemetryService) fail(ctx context.Context, device string, cause error) error {
	if !s.failures.Fail() {
		return cause
	}
	err := s.transport.Resubscribe(ctx, device, s.labels.Controls())
	meta := map[string]any{"cause": cause.Error()}
	if err != nil {
		meta["resubscribe_error"] = err.Error()
	}
	_ = s.eventRepo.Append(ctx, models.DeviceEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventTelemetry,
		Description: "Resubscribed after consecutive failures",
		Metadata:    meta,
	})
	return errors.Join(cause, err)
}
