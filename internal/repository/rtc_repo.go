package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"brewtemp/internal/config"
)

// RTCSQLite emulates the RTC user memory of the board in a table. Each row
// is one slot tagged with config.SlotMagic.
type RTCSQLite struct {
	db *sql.DB
}

func NewRTCSQLite(db *sql.DB) *RTCSQLite { return &RTCSQLite{db: db} }

var _ RTCMemory = (*RTCSQLite)(nil)

const (
	selectSlotSQL = `SELECT value, magic FROM rtc_memory WHERE address = ?`
	upsertSlotSQL = `
		INSERT INTO rtc_memory (address, value, magic) VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET value=excluded.value, magic=excluded.magic
	`
)

// Read returns ok=false for a slot that was never written or whose magic
// does not match.
func (r *RTCSQLite) Read(ctx context.Context, addr int) (uint32, bool, error) {
	var value, magic int64
	err := r.db.QueryRowContext(ctx, selectSlotSQL, addr).Scan(&value, &magic)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read rtc slot %d: %w", addr, err)
	}
	if uint32(magic) != config.SlotMagic {
		return 0, false, nil
	}
	return uint32(value), true, nil
}

func (r *RTCSQLite) Write(ctx context.Context, addr int, value uint32) error {
	if _, err := r.db.ExecContext(ctx, upsertSlotSQL, addr, int64(value), int64(config.SlotMagic)); err != nil {
		return fmt.Errorf("write rtc slot %d: %w", addr, err)
	}
	return nil
}
