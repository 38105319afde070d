package config

import (
	"errors"
	"fmt"
)

var (
	ErrLimitsOrder   = errors.New("min temperature limit must be below max temperature limit")
	ErrPinConflict   = errors.New("pin assigned twice")
	ErrRelayLevels   = errors.New("relay active and inactive levels must differ")
	ErrInvalidLevel  = errors.New("level must be LOW or HIGH")
	ErrMissingValue  = errors.New("required value is empty")
	ErrNonPositive   = errors.New("value must be positive")
	ErrNegativeValue = errors.New("value must not be negative")
)

// Validate checks the table invariants and reports every violation.
func (c DeviceConfiguration) Validate() error {
	var errs []error
	add := func(err error, field string) {
		errs = append(errs, fmt.Errorf("%s: %w", field, err))
	}

	if !(c.Limits.MinTemperature < c.Limits.MaxTemperature) {
		add(ErrLimitsOrder, "limits")
	}
	if c.Limits.FreezerDifferential <= 0 {
		add(ErrNonPositive, "limits.freezer_differential")
	}

	if !c.Relay.Active.Valid() {
		add(ErrInvalidLevel, "relay.active")
	}
	if !c.Relay.Inactive.Valid() {
		add(ErrInvalidLevel, "relay.inactive")
	}
	if c.Relay.Active == c.Relay.Inactive {
		add(ErrRelayLevels, "relay")
	}

	pins := []struct {
		name string
		pin  int
	}{
		{"pins.fermenter_probe", c.Pins.FermenterProbe},
		{"pins.freezer_probe", c.Pins.FreezerProbe},
		{"pins.status_led", c.Pins.StatusLED},
		{"pins.heat_relay", c.Pins.HeatRelay},
		{"pins.cool_relay", c.Pins.CoolRelay},
	}
	seen := make(map[int]string, len(pins))
	for _, p := range pins {
		if p.pin < 0 {
			add(ErrNegativeValue, p.name)
			continue
		}
		if other, ok := seen[p.pin]; ok {
			add(fmt.Errorf("%w: %d also used by %s", ErrPinConflict, p.pin, other), p.name)
			continue
		}
		seen[p.pin] = p.name
	}

	if c.HTTPPort <= 0 {
		add(ErrNonPositive, "http_port")
	}
	if c.ConfigFilePath == "" {
		add(ErrMissingValue, "config_file_path")
	}
	if c.DoubleReset.Address < 0 {
		add(ErrNegativeValue, "double_reset.address")
	}
	if c.DoubleReset.Timeout < 0 {
		add(ErrNegativeValue, "double_reset.timeout")
	}

	if c.Telemetry.Host == "" {
		add(ErrMissingValue, "telemetry.host")
	}
	if c.Telemetry.Port <= 0 {
		add(ErrNonPositive, "telemetry.port")
	}
	if c.Telemetry.MaxConsecutiveFailures < 0 {
		add(ErrNegativeValue, "telemetry.max_consecutive_failures")
	}
	for name, label := range map[string]string{
		"telemetry.labels.fermenter": c.Telemetry.Labels.Fermenter,
		"telemetry.labels.freezer":   c.Telemetry.Labels.Freezer,
		"telemetry.labels.mode":      c.Telemetry.Labels.Mode,
		"telemetry.labels.tempset":   c.Telemetry.Labels.TempSet,
		"telemetry.labels.output":    c.Telemetry.Labels.Output,
	} {
		if label == "" {
			add(ErrMissingValue, name)
		}
	}

	if c.Timing.MeasurementSubintervals <= 0 {
		add(ErrNonPositive, "timing.measurement_subintervals")
	}
	if c.Timing.BlinkIntervalSubintervals <= 0 {
		add(ErrNonPositive, "timing.blink_interval_subintervals")
	}
	if c.Timing.RampInterval <= 0 {
		add(ErrNonPositive, "timing.ramp_interval")
	}

	return errors.Join(errs...)
}
