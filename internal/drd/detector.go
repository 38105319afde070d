// Package drd detects a double reset: a second boot that happens while the
// flag written by the previous boot is still set.
package drd

import (
	"context"
	"fmt"

	"brewtemp/internal/config"
	"brewtemp/internal/repository"
)

type BootReason string

const (
	BootNormal      BootReason = "NORMAL"
	BootDoubleReset BootReason = "DOUBLE_RESET"
)

type Detector struct {
	mem  repository.RTCMemory
	addr int
}

func NewDetector(mem repository.RTCMemory, cfg config.DoubleResetConfig) *Detector {
	return &Detector{mem: mem, addr: cfg.Address}
}

// Detect reads the boot flag and arms it for the next boot. The caller
// must call Stop once the double reset window has elapsed.
func (d *Detector) Detect(ctx context.Context) (BootReason, error) {
	v, ok, err := d.mem.Read(ctx, d.addr)
	if err != nil {
		return BootNormal, fmt.Errorf("read boot flag: %w", err)
	}

	reason := BootNormal
	if ok && config.BootFlag(v) == config.BootFlagSet {
		reason = BootDoubleReset
	}

	if err := d.mem.Write(ctx, d.addr, uint32(config.BootFlagSet)); err != nil {
		return reason, fmt.Errorf("arm boot flag: %w", err)
	}
	return reason, nil
}

// Stop clears the flag so the next reset counts as a normal boot.
func (d *Detector) Stop(ctx context.Context) error {
	if err := d.mem.Write(ctx, d.addr, uint32(config.BootFlagClear)); err != nil {
		return fmt.Errorf("clear boot flag: %w", err)
	}
	return nil
}
