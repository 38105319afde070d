package models

import "time"

// DeviceState is the current snapshot of the controller.
type DeviceState struct {
	ID             int       `json:"id"`
	Mode           Mode      `json:"mode"`
	FermenterTempC float64   `json:"fermenter_temp_c"`
	FreezerTempC   float64   `json:"freezer_temp_c"`
	TargetTempC    float64   `json:"target_temp_c"`
	RampHours      int       `json:"ramp_hours"`
	OutputSeconds  int       `json:"output_seconds"` // heat > 0, cool < 0, over the last measurement window
	HeatOn         bool      `json:"heat_on"`
	CoolOn         bool      `json:"cool_on"`
	ErrorCodes     []string  `json:"error_codes,omitempty"` // e.g. ["OVER_MAX_LIMIT", "PROBE_FAULT"]
	ConfigMode     bool      `json:"config_mode"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Error codes raised by the safety checks and probes.
const (
	ErrCodeUnderMin          = "UNDER_MIN_LIMIT"
	ErrCodeOverMax           = "OVER_MAX_LIMIT"
	ErrCodeFreezerDeviation  = "FREEZER_DEVIATION"
	ErrCodeFermenterProbe    = "FERMENTER_PROBE_FAULT"
	ErrCodeFreezerProbe      = "FREEZER_PROBE_FAULT"
	ErrCodeSettingsUnmounted = "SETTINGS_NOT_MOUNTED"
)
