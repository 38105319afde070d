package hardware

import "brewtemp/internal/config"

// Relay drives one actuator through a pin, translating on/off into the
// configured logic levels.
type Relay struct {
	gpio     GPIO
	pin      int
	active   config.Level
	inactive config.Level
}

// NewRelay drives the pin to its inactive level straight away.
func NewRelay(gpio GPIO, pin int, levels config.RelayConfig) *Relay {
	r := &Relay{gpio: gpio, pin: pin, active: levels.Active, inactive: levels.Inactive}
	r.Off()
	return r
}

func (r *Relay) On()  { r.gpio.Write(r.pin, r.active) }
func (r *Relay) Off() { r.gpio.Write(r.pin, r.inactive) }

func (r *Relay) Set(on bool) {
	if on {
		r.On()
		return
	}
	r.Off()
}

func (r *Relay) IsOn() bool { return r.gpio.Read(r.pin) == r.active }

func (r *Relay) Pin() int { return r.pin }
