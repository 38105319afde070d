package service

import "time"

// LogFilter narrows the event history by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "BOOT", "RELAY", "SETTINGS", "MODE_CHANGE", "ERROR", "TELEMETRY"
}

// BootInfo describes how the process came up.
type BootInfo struct {
	Reason     string
	FileState  string
	ConfigMode bool
	Revision   string
}

// Sources of a settings change, recorded in event metadata.
const (
	SourceAPI   = "api"
	SourceCloud = "cloud"
	SourceRamp  = "ramp"
)
