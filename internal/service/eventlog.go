package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"brewtemp/internal/models"
	"brewtemp/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrUnknownEventType = errors.New("unknown event type")
)

var eventTypes = []string{
	models.EventBoot,
	models.EventRelay,
	models.EventSettings,
	models.EventModeChange,
	models.EventError,
	models.EventTelemetry,
}

// normalizeFilter converts the bounds to UTC, upper-cases the type and
// rejects inverted ranges and unknown types.
func normalizeFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from, to := toUTC(f.From), toUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}

	typ := strings.TrimSpace(strings.ToUpper(f.Type))
	if typ != "" && !hasString(eventTypes, typ) {
		return time.Time{}, time.Time{}, "", ErrUnknownEventType
	}
	return from, to, typ, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	from, to, typ, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
