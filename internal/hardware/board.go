package hardware

import "brewtemp/internal/config"

// Board binds the peripherals to the pins of a device table.
type Board struct {
	GPIO      GPIO
	Heat      *Relay
	Cool      *Relay
	LED       *StatusLED
	Fermenter *SimProbe
	Freezer   *SimProbe
}

// NewBoard leaves both relays off and the LED dark. Probes start at ambientC.
func NewBoard(cfg config.DeviceConfiguration, gpio GPIO, ambientC float64) *Board {
	return &Board{
		GPIO:      gpio,
		Heat:      NewRelay(gpio, cfg.Pins.HeatRelay, cfg.Relay),
		Cool:      NewRelay(gpio, cfg.Pins.CoolRelay, cfg.Relay),
		LED:       NewStatusLED(gpio, cfg.Pins.StatusLED, cfg.Timing.BlinkIntervalSubintervals),
		Fermenter: NewSimProbe(cfg.Pins.FermenterProbe, ambientC),
		Freezer:   NewSimProbe(cfg.Pins.FreezerProbe, ambientC),
	}
}

// AllOff switches both relays off.
func (b *Board) AllOff() {
	b.Heat.Off()
	b.Cool.Off()
}
