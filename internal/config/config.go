package config

import (
	"fmt"
	"time"
)

// Level is the logic level driven on a digital pin.
type Level string

const (
	LevelLow  Level = "LOW"
	LevelHigh Level = "HIGH"
)

// Valid reports whether l is LOW or HIGH.
func (l Level) Valid() bool {
	return l == LevelLow || l == LevelHigh
}

// Complement returns the opposite level.
func (l Level) Complement() Level {
	if l == LevelLow {
		return LevelHigh
	}
	return LevelLow
}

// BootFlag is the value kept in the double-reset slot between boots.
type BootFlag uint32

const (
	BootFlagSet   BootFlag = 0xD0D01234 // a reset inside the window is a double reset
	BootFlagClear BootFlag = 0xD0D04321
)

// SlotMagic marks a persistent memory slot as holding valid data.
const SlotMagic uint32 = 0xCAFEBABE

func (f BootFlag) String() string {
	switch f {
	case BootFlagSet:
		return "SET"
	case BootFlagClear:
		return "CLEAR"
	default:
		return fmt.Sprintf("UNKNOWN(0x%08X)", uint32(f))
	}
}

// FileState is the outcome of loading the persisted settings file.
type FileState int

const (
	FileOK FileState = iota
	FileEmpty
	FileNotFound
	FSNotMounted
)

func (s FileState) String() string {
	switch s {
	case FileOK:
		return "OK"
	case FileEmpty:
		return "EMPTY"
	case FileNotFound:
		return "NOT_FOUND"
	case FSNotMounted:
		return "NOT_MOUNTED"
	default:
		return fmt.Sprintf("FileState(%d)", int(s))
	}
}

// DeviceConfiguration is the compiled-in device table. It is built once at
// startup and never mutated afterwards.
type DeviceConfiguration struct {
	Revision       Revision          `mapstructure:"-"`
	AP             APConfig          `mapstructure:"ap"`
	HTTPPort       int               `mapstructure:"http_port"`
	ConfigFilePath string            `mapstructure:"config_file_path"`
	DoubleReset    DoubleResetConfig `mapstructure:"double_reset"`
	Telemetry      TelemetryConfig   `mapstructure:"telemetry"`
	Pins           PinConfig         `mapstructure:"pins"`
	Relay          RelayConfig       `mapstructure:"relay"`
	Timing         TimingConfig      `mapstructure:"timing"`
	Limits         LimitsConfig      `mapstructure:"limits"`
}

// APConfig holds the fallback access point used for initial setup.
type APConfig struct {
	SSID     string `mapstructure:"ssid"`
	Password string `mapstructure:"password"`
}

type DoubleResetConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Address int           `mapstructure:"address"`
}

type TelemetryConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// MaxConsecutiveFailures is the failure count that triggers a
	// resubscription. Zero disables it.
	MaxConsecutiveFailures int    `mapstructure:"max_consecutive_failures"`
	Labels                 Labels `mapstructure:"labels"`
}

// Labels are the cloud variable identifiers. Ramp and Offset are optional:
// an empty label means the revision does not carry that variable.
type Labels struct {
	Fermenter string `mapstructure:"fermenter"`
	Freezer   string `mapstructure:"freezer"`
	Mode      string `mapstructure:"mode"`
	TempSet   string `mapstructure:"tempset"`
	Output    string `mapstructure:"output"`
	Ramp      string `mapstructure:"ramp"`
	Offset    string `mapstructure:"offset"`
}

// Controls returns the labels read back from the cloud, skipping absent ones.
func (l Labels) Controls() []string {
	out := []string{l.Mode, l.TempSet}
	if l.Ramp != "" {
		out = append(out, l.Ramp)
	}
	if l.Offset != "" {
		out = append(out, l.Offset)
	}
	return out
}

type PinConfig struct {
	FermenterProbe int `mapstructure:"fermenter_probe"`
	FreezerProbe   int `mapstructure:"freezer_probe"`
	StatusLED      int `mapstructure:"status_led"`
	HeatRelay      int `mapstructure:"heat_relay"`
	CoolRelay      int `mapstructure:"cool_relay"`
}

type RelayConfig struct {
	Active   Level `mapstructure:"active"`
	Inactive Level `mapstructure:"inactive"`
}

type TimingConfig struct {
	MeasurementSubintervals   int           `mapstructure:"measurement_subintervals"`
	BlinkIntervalSubintervals int           `mapstructure:"blink_interval_subintervals"`
	RampInterval              time.Duration `mapstructure:"ramp_interval"`
}

type LimitsConfig struct {
	MinTemperature      float64 `mapstructure:"min_temperature"`
	MaxTemperature      float64 `mapstructure:"max_temperature"`
	FreezerDifferential float64 `mapstructure:"freezer_differential"`
}

// Redacted returns a copy safe to expose over the API.
func (c DeviceConfiguration) Redacted() DeviceConfiguration {
	if c.AP.Password != "" {
		c.AP.Password = "*redacted*"
	}
	return c
}

// Config is the full process configuration: the device table plus the
// runtime knobs of this service.
type Config struct {
	Device    DeviceConfiguration `mapstructure:"device"`
	LogLevel  string              `mapstructure:"log_level"`
	DB        DBConfig            `mapstructure:"db"`
	Auth      AuthConfig          `mapstructure:"auth"`
	Storage   StorageConfig       `mapstructure:"storage"`
	Simulator SimulatorConfig     `mapstructure:"simulator"`
	Transport TransportConfig     `mapstructure:"transport"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// StorageConfig locates the filesystem that holds ConfigFilePath.
type StorageConfig struct {
	MountPoint string `mapstructure:"mount_point"`
}

type SimulatorConfig struct {
	Tick     time.Duration `mapstructure:"tick"`
	AmbientC float64       `mapstructure:"ambient_c"`
}

// TransportConfig picks how telemetry reaches the cloud.
type TransportConfig struct {
	Kind     string        `mapstructure:"kind"` // http | mqtt
	Timeout  time.Duration `mapstructure:"timeout"`
	MQTTPort int           `mapstructure:"mqtt_port"`
}
