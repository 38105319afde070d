package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. BREWTEMP_DEVICE_HTTP_PORT.
const EnvPrefix = "brewtemp"

// DefaultFile is read when no explicit file is given.
const DefaultFile = "configs/config.yml"

// Load builds the process configuration from defaults, an optional YAML file
// and the environment, in increasing precedence. The device table is
// validated before it is returned.
func Load(v *viper.Viper, file string) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		if _, err := os.Stat(file); err == nil {
			v.SetConfigFile(file)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %q: %w", file, err)
			}
		}
	}

	rev, err := ParseRevision(v.GetString("device.revision"))
	if err != nil {
		return nil, err
	}
	defaults := DefaultConfig()
	defaults.Device = DefaultsFor(rev)
	setDefaults(v, defaults)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Device.Revision = rev
	cfg.Device.Relay.Active = Level(strings.ToUpper(string(cfg.Device.Relay.Active)))
	cfg.Device.Relay.Inactive = Level(strings.ToUpper(string(cfg.Device.Relay.Inactive)))

	if err := cfg.Device.Validate(); err != nil {
		return nil, fmt.Errorf("invalid device configuration: %w", err)
	}
	switch cfg.Transport.Kind = strings.ToLower(cfg.Transport.Kind); cfg.Transport.Kind {
	case TransportHTTP, TransportMQTT:
	default:
		return nil, fmt.Errorf("unknown telemetry transport %q", cfg.Transport.Kind)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	d := c.Device
	v.SetDefault("device.revision", d.Revision.String())
	v.SetDefault("device.ap.ssid", d.AP.SSID)
	v.SetDefault("device.ap.password", d.AP.Password)
	v.SetDefault("device.http_port", d.HTTPPort)
	v.SetDefault("device.config_file_path", d.ConfigFilePath)
	v.SetDefault("device.double_reset.timeout", d.DoubleReset.Timeout)
	v.SetDefault("device.double_reset.address", d.DoubleReset.Address)
	v.SetDefault("device.telemetry.host", d.Telemetry.Host)
	v.SetDefault("device.telemetry.port", d.Telemetry.Port)
	v.SetDefault("device.telemetry.max_consecutive_failures", d.Telemetry.MaxConsecutiveFailures)
	v.SetDefault("device.telemetry.labels.fermenter", d.Telemetry.Labels.Fermenter)
	v.SetDefault("device.telemetry.labels.freezer", d.Telemetry.Labels.Freezer)
	v.SetDefault("device.telemetry.labels.mode", d.Telemetry.Labels.Mode)
	v.SetDefault("device.telemetry.labels.tempset", d.Telemetry.Labels.TempSet)
	v.SetDefault("device.telemetry.labels.output", d.Telemetry.Labels.Output)
	v.SetDefault("device.telemetry.labels.ramp", d.Telemetry.Labels.Ramp)
	v.SetDefault("device.telemetry.labels.offset", d.Telemetry.Labels.Offset)
	v.SetDefault("device.pins.fermenter_probe", d.Pins.FermenterProbe)
	v.SetDefault("device.pins.freezer_probe", d.Pins.FreezerProbe)
	v.SetDefault("device.pins.status_led", d.Pins.StatusLED)
	v.SetDefault("device.pins.heat_relay", d.Pins.HeatRelay)
	v.SetDefault("device.pins.cool_relay", d.Pins.CoolRelay)
	v.SetDefault("device.relay.active", string(d.Relay.Active))
	v.SetDefault("device.relay.inactive", string(d.Relay.Inactive))
	v.SetDefault("device.timing.measurement_subintervals", d.Timing.MeasurementSubintervals)
	v.SetDefault("device.timing.blink_interval_subintervals", d.Timing.BlinkIntervalSubintervals)
	v.SetDefault("device.timing.ramp_interval", d.Timing.RampInterval)
	v.SetDefault("device.limits.min_temperature", d.Limits.MinTemperature)
	v.SetDefault("device.limits.max_temperature", d.Limits.MaxTemperature)
	v.SetDefault("device.limits.freezer_differential", d.Limits.FreezerDifferential)

	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("db.path", c.DB.Path)
	v.SetDefault("auth.signing_key", c.Auth.SigningKey)
	v.SetDefault("auth.token_ttl", c.Auth.TokenTTL)
	v.SetDefault("storage.mount_point", c.Storage.MountPoint)
	v.SetDefault("simulator.tick", c.Simulator.Tick)
	v.SetDefault("simulator.ambient_c", c.Simulator.AmbientC)
	v.SetDefault("transport.kind", c.Transport.Kind)
	v.SetDefault("transport.timeout", c.Transport.Timeout)
	v.SetDefault("transport.mqtt_port", c.Transport.MQTTPort)
}
