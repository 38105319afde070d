package models

import "time"

// Settings is the user-tunable blob persisted at the device config file path.
type Settings struct {
	WiFiSSID     string    `json:"wifi_ssid"`
	WiFiPassword string    `json:"wifi_password"`
	Token        string    `json:"token"`
	DeviceLabel  string    `json:"device_label"`
	Mode         Mode      `json:"mode"`
	TempSet      float64   `json:"tempset"`
	RampHours    int       `json:"ramphours"`
	Offset       float64   `json:"offset"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultSettings is used when no settings file exists yet.
func DefaultSettings() Settings {
	return Settings{
		DeviceLabel: "brewtemp",
		Mode:        ModeStandby,
		TempSet:     18,
	}
}

// Redacted hides credentials before the settings leave the process.
func (s Settings) Redacted() Settings {
	if s.WiFiPassword != "" {
		s.WiFiPassword = "*redacted*"
	}
	if s.Token != "" {
		s.Token = "*redacted*"
	}
	return s
}

// SettingsPatch carries a partial update. Nil fields are left unchanged.
type SettingsPatch struct {
	WiFiSSID     *string  `json:"wifi_ssid,omitempty"`
	WiFiPassword *string  `json:"wifi_password,omitempty"`
	Token        *string  `json:"token,omitempty"`
	DeviceLabel  *string  `json:"device_label,omitempty"`
	Mode         *Mode    `json:"mode,omitempty"`
	TempSet      *float64 `json:"tempset,omitempty"`
	RampHours    *int     `json:"ramphours,omitempty"`
	Offset       *float64 `json:"offset,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.WiFiSSID == nil && p.WiFiPassword == nil && p.Token == nil && p.DeviceLabel == nil &&
		p.Mode == nil && p.TempSet == nil && p.RampHours == nil && p.Offset == nil
}

// Apply returns s with the patch applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.WiFiSSID != nil {
		s.WiFiSSID = *p.WiFiSSID
	}
	if p.WiFiPassword != nil {
		s.WiFiPassword = *p.WiFiPassword
	}
	if p.Token != nil {
		s.Token = *p.Token
	}
	if p.DeviceLabel != nil {
		s.DeviceLabel = *p.DeviceLabel
	}
	if p.Mode != nil {
		s.Mode = *p.Mode
	}
	if p.TempSet != nil {
		s.TempSet = *p.TempSet
	}
	if p.RampHours != nil {
		s.RampHours = *p.RampHours
	}
	if p.Offset != nil {
		s.Offset = *p.Offset
	}
	return s
}

// RelayCommand is a manual switch request for the two relays.
type RelayCommand struct {
	Heat bool `json:"heat"`
	Cool bool `json:"cool"`
}
