package hardware

import (
	"errors"
	"sync"
)

var ErrProbeFault = errors.New("probe not responding")

type Probe interface {
	Temperature() (float64, error)
}

// SimProbe is a probe whose reading is set by the simulator.
type SimProbe struct {
	mu      sync.RWMutex
	pin     int
	tempC   float64
	faulted bool
}

func NewSimProbe(pin int, initialC float64) *SimProbe {
	return &SimProbe{pin: pin, tempC: initialC}
}

func (p *SimProbe) Temperature() (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.faulted {
		return 0, ErrProbeFault
	}
	return p.tempC, nil
}

func (p *SimProbe) Set(c float64) {
	p.mu.Lock()
	p.tempC = c
	p.mu.Unlock()
}

// Fault makes Temperature fail until cleared.
func (p *SimProbe) Fault(on bool) {
	p.mu.Lock()
	p.faulted = on
	p.mu.Unlock()
}

func (p *SimProbe) Pin() int { return p.pin }
