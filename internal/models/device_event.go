package models

import "time"

// DeviceEvent is a single log entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // BOOT | RELAY | SETTINGS | MODE_CHANGE | ERROR | TELEMETRY
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

const (
	EventBoot       = "BOOT"
	EventRelay      = "RELAY"
	EventSettings   = "SETTINGS"
	EventModeChange = "MODE_CHANGE"
	EventError      = "ERROR"
	EventTelemetry  = "TELEMETRY"
)
