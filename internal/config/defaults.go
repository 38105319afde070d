package config

import (
	"fmt"
	"strings"
	"time"
)

// Revision identifies one of the shipped device tables. The tables drifted
// over time; Revision1 is the canonical one.
type Revision int

const (
	Revision1 Revision = iota + 1
	Revision2
	Revision3
)

func (r Revision) String() string {
	switch r {
	case Revision1:
		return "r1"
	case Revision2:
		return "r2"
	case Revision3:
		return "r3"
	default:
		return fmt.Sprintf("r?(%d)", int(r))
	}
}

// ParseRevision accepts "1", "r1", "rev1" and the like.
func ParseRevision(s string) (Revision, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "rev"), "r")
	switch s {
	case "", "1":
		return Revision1, nil
	case "2":
		return Revision2, nil
	case "3":
		return Revision3, nil
	}
	return 0, fmt.Errorf("unknown device revision %q", s)
}

const (
	TelemetryHostIndustrial = "industrial.api.ubidots.com"
	TelemetryHostEducation  = "things.ubidots.com"
	TelemetryHostLegacy     = "industrial.ubidots.com"
)

const (
	TransportHTTP = "http"
	TransportMQTT = "mqtt"
)

// Default returns the canonical device table.
func Default() DeviceConfiguration {
	return DefaultsFor(Revision1)
}

// DefaultsFor returns the table as shipped in the given revision. Unknown
// revisions get the canonical table.
func DefaultsFor(rev Revision) DeviceConfiguration {
	c := DeviceConfiguration{
		Revision: Revision1,
		AP: APConfig{
			SSID:     "BrewTemp",
			Password: "",
		},
		HTTPPort:       80,
		ConfigFilePath: "/brewtemp.json",
		DoubleReset: DoubleResetConfig{
			Timeout: 1 * time.Second,
			Address: 0,
		},
		Telemetry: TelemetryConfig{
			Host:                   TelemetryHostIndustrial,
			Port:                   80,
			MaxConsecutiveFailures: 100,
			Labels: Labels{
				Fermenter: "tempferm",
				Freezer:   "tempcong",
				Mode:      "mode",
				TempSet:   "tempset",
				Output:    "outputtime",
				Ramp:      "ramphours",
			},
		},
		Pins: PinConfig{
			FermenterProbe: 5,  // D1
			FreezerProbe:   4,  // D2
			StatusLED:      13, // D7
			HeatRelay:      16, // D0
			CoolRelay:      12, // D6
		},
		Relay: RelayConfig{
			Active:   LevelLow,
			Inactive: LevelHigh,
		},
		Timing: TimingConfig{
			MeasurementSubintervals:   10,
			BlinkIntervalSubintervals: 300,
			RampInterval:              3600000 * time.Millisecond,
		},
		Limits: LimitsConfig{
			MinTemperature:      0.1,
			MaxTemperature:      30,
			FreezerDifferential: 3.2,
		},
	}

	switch rev {
	case Revision2, Revision3:
		c.Revision = rev
		c.Telemetry.Host = TelemetryHostEducation
		if rev == Revision3 {
			c.Telemetry.Host = TelemetryHostLegacy
		}
		// older tables had an offset variable and no ramp or failure limit
		c.Telemetry.Labels.Ramp = ""
		c.Telemetry.Labels.Offset = "offset"
		c.Telemetry.MaxConsecutiveFailures = 0
	}
	return c
}

// DefaultConfig returns the process configuration with the canonical table.
func DefaultConfig() Config {
	return Config{
		Device:   Default(),
		LogLevel: "info",
		DB:       DBConfig{Path: "brewtemp.db"},
		Auth: AuthConfig{
			SigningKey: "change-me",
			TokenTTL:   time.Hour,
		},
		Storage: StorageConfig{MountPoint: "data"},
		Simulator: SimulatorConfig{
			Tick:     time.Second,
			AmbientC: 20,
		},
		Transport: TransportConfig{
			Kind:     TransportHTTP,
			Timeout:  10 * time.Second,
			MQTTPort: 1883,
		},
	}
}
