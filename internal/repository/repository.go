package repository

import (
	"context"
	"database/sql"
	"time"

	"brewtemp/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type StateRepo interface {
	Save(ctx context.Context, s models.DeviceState) error
	Load(ctx context.Context) (models.DeviceState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error)
}

// RTCMemory is an address-keyed store of 32-bit slots that survives restarts.
// A slot only counts as present when its magic matches.
type RTCMemory interface {
	Read(ctx context.Context, addr int) (uint32, bool, error)
	Write(ctx context.Context, addr int, value uint32) error
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
	RTC       RTCMemory
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
		RTC:       NewRTCSQLite(db),
	}
}
