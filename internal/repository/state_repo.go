package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"brewtemp/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	deviceStateRowID = 1

	upsertStateSQL = `
		INSERT INTO device_state (id, mode, fermenter_c, freezer_c, target_c, ramp_hours, output_s, heat_on, cool_on, errors, config_mode, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode=excluded.mode,
			fermenter_c=excluded.fermenter_c,
			freezer_c=excluded.freezer_c,
			target_c=excluded.target_c,
			ramp_hours=excluded.ramp_hours,
			output_s=excluded.output_s,
			heat_on=excluded.heat_on,
			cool_on=excluded.cool_on,
			errors=excluded.errors,
			config_mode=excluded.config_mode,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, mode, fermenter_c, freezer_c, target_c, ramp_hours, output_s, heat_on, cool_on, errors, config_mode, updated_at
		FROM device_state WHERE id=?
	`
)

func marshalErrorCodes(codes []string) (string, error) {
	b, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalErrorCodes(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(s), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// Save upserts the single device_state row.
func (r *StateSQLite) Save(ctx context.Context, state models.DeviceState) error {
	errorsJSON, err := marshalErrorCodes(state.ErrorCodes)
	if err != nil {
		return err
	}

	ts := state.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err = r.db.ExecContext(ctx, upsertStateSQL,
		deviceStateRowID,
		string(state.Mode),
		state.FermenterTempC,
		state.FreezerTempC,
		state.TargetTempC,
		state.RampHours,
		state.OutputSeconds,
		state.HeatOn,
		state.CoolOn,
		errorsJSON,
		state.ConfigMode,
		ts,
	)
	return err
}

// Load fetches the device_state row. A missing row yields the zero state.
func (r *StateSQLite) Load(ctx context.Context) (models.DeviceState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, deviceStateRowID)

	var s models.DeviceState
	var mode, errorsJSON string
	if err := row.Scan(
		&s.ID,
		&mode,
		&s.FermenterTempC,
		&s.FreezerTempC,
		&s.TargetTempC,
		&s.RampHours,
		&s.OutputSeconds,
		&s.HeatOn,
		&s.CoolOn,
		&errorsJSON,
		&s.ConfigMode,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceState{}, nil
		}
		return models.DeviceState{}, err
	}

	codes, err := unmarshalErrorCodes(errorsJSON)
	if err != nil {
		return models.DeviceState{}, err
	}
	s.Mode = models.Mode(mode)
	s.ErrorCodes = codes
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
