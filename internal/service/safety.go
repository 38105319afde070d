package service

import (
	"brewtemp/internal/config"
	"brewtemp/internal/models"
)

// CheckLimits returns the safety violations for a pair of readings. The
// freezer deviation only counts while cooling.
func CheckLimits(l config.LimitsConfig, fermC, freezerC float64, coolOn bool) []string {
	var codes []string
	if fermC < l.MinTemperature {
		codes = append(codes, models.ErrCodeUnderMin)
	}
	if fermC > l.MaxTemperature {
		codes = append(codes, models.ErrCodeOverMax)
	}
	if coolOn && fermC-freezerC > l.FreezerDifferential {
		codes = append(codes, models.ErrCodeFreezerDeviation)
	}
	return codes
}

// interlock reports whether switching the relays to cmd is unsafe at fermC.
func interlock(l config.LimitsConfig, fermC float64, probeFault bool, cmd models.RelayCommand) bool {
	if (cmd.Heat || cmd.Cool) && probeFault {
		return true
	}
	if cmd.Heat && fermC >= l.MaxTemperature {
		return true
	}
	if cmd.Cool && fermC <= l.MinTemperature {
		return true
	}
	return false
}

func hasString(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
