package models

import (
	"fmt"
	"strings"
)

// Mode is the operating mode selected by the user or the cloud.
type Mode string

const (
	ModeStandby  Mode = "STANDBY"
	ModeHeat     Mode = "HEAT"
	ModeCool     Mode = "COOL"
	ModeHeatCool Mode = "HEAT_COOL"
)

var modeCodes = []Mode{ModeStandby, ModeHeat, ModeCool, ModeHeatCool}

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// ModeFromCode maps the numeric telemetry value (0..3) to a Mode.
func ModeFromCode(code int) (Mode, error) {
	if code < 0 || code >= len(modeCodes) {
		return "", fmt.Errorf("unknown mode code %d", code)
	}
	return modeCodes[code], nil
}

// Code is the numeric value published for the mode variable.
func (m Mode) Code() int {
	for i, v := range modeCodes {
		if v == m {
			return i
		}
	}
	return 0
}

func (m Mode) Valid() bool {
	for _, v := range modeCodes {
		if v == m {
			return true
		}
	}
	return false
}

// AllowsHeat reports whether the heat relay may be switched on in this mode.
func (m Mode) AllowsHeat() bool { return m == ModeHeat || m == ModeHeatCool }

// AllowsCool reports whether the cool relay may be switched on in this mode.
func (m Mode) AllowsCool() bool { return m == ModeCool || m == ModeHeatCool }
