package hardware

import (
	"sync"

	"brewtemp/internal/config"
)

// StatusLED is lit by driving its pin LOW, like the relays.
type StatusLED struct {
	mu     sync.Mutex
	gpio   GPIO
	pin    int
	period int
	ticks  int
	lit    bool
}

func NewStatusLED(gpio GPIO, pin, blinkInterval int) *StatusLED {
	if blinkInterval <= 0 {
		blinkInterval = 1
	}
	l := &StatusLED{gpio: gpio, pin: pin, period: blinkInterval}
	l.write(false)
	return l
}

// Tick advances the LED by one subinterval. With an alarm the LED toggles
// every tick; otherwise it flashes for one tick every blinkInterval ticks.
func (l *StatusLED) Tick(alarm bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if alarm {
		l.ticks = 0
		l.write(!l.lit)
		return
	}
	l.ticks++
	if l.ticks >= l.period {
		l.ticks = 0
		l.write(true)
		return
	}
	l.write(false)
}

func (l *StatusLED) Lit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lit
}

func (l *StatusLED) write(on bool) {
	l.lit = on
	if on {
		l.gpio.Write(l.pin, config.LevelLow)
		return
	}
	l.gpio.Write(l.pin, config.LevelHigh)
}
