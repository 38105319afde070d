// Package hardware models the controller board: digital pins, the two
// relays, the status LED and the temperature probes.
package hardware

import (
	"sync"

	"brewtemp/internal/config"
)

type GPIO interface {
	Write(pin int, level config.Level)
	Read(pin int) config.Level
}

// MemoryGPIO keeps pin levels in memory. Unwritten pins read LOW.
type MemoryGPIO struct {
	mu     sync.RWMutex
	levels map[int]config.Level
	writes int
}

func NewMemoryGPIO() *MemoryGPIO {
	return &MemoryGPIO{levels: make(map[int]config.Level)}
}

func (g *MemoryGPIO) Write(pin int, level config.Level) {
	g.mu.Lock()
	g.levels[pin] = level
	g.writes++
	g.mu.Unlock()
}

func (g *MemoryGPIO) Read(pin int) config.Level {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if l, ok := g.levels[pin]; ok {
		return l
	}
	return config.LevelLow
}

// Writes counts pin writes since creation.
func (g *MemoryGPIO) Writes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.writes
}
