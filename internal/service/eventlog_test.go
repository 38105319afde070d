package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"brewtemp/internal/models"
)

func TestNormalizeFilter(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	from := time.Date(2024, 1, 1, 10, 0, 0, 0, loc)
	to := from.Add(time.Hour)

	gotFrom, gotTo, typ, err := normalizeFilter(LogFilter{From: from, To: to, Type: " relay "})
	if err != nil {
		t.Fatalf("normalizeFilter: %v", err)
	}
	if gotFrom.Location() != time.UTC || gotTo.Location() != time.UTC {
		t.Fatalf("bounds not converted to UTC")
	}
	if !gotFrom.Equal(from) || !gotTo.Equal(to) {
		t.Fatalf("bounds changed: %v %v", gotFrom, gotTo)
	}
	if typ != models.EventRelay {
		t.Fatalf("type = %q, want %q", typ, models.EventRelay)
	}

	gotFrom, gotTo, typ, err = normalizeFilter(LogFilter{})
	if err != nil || !gotFrom.IsZero() || !gotTo.IsZero() || typ != "" {
		t.Fatalf("empty filter should stay empty: %v %v %q %v", gotFrom, gotTo, typ, err)
	}
}

func TestNormalizeFilter_Rejections(t *testing.T) {
	now := time.Now()
	if _, _, _, err := normalizeFilter(LogFilter{From: now, To: now.Add(-time.Minute)}); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
	if _, _, _, err := normalizeFilter(LogFilter{Type: "BOGUS"}); !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestEventLogService_List(t *testing.T) {
	repo := &memEventRepo{events: []models.DeviceEvent{{EventID: "a", Type: models.EventBoot}}}
	svc := NewEventLogService(repo)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.List(context.Background(), LogFilter{From: from, Type: "boot"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "a" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if !repo.gotFrom.Equal(from) || !repo.gotTo.IsZero() || repo.gotType != models.EventBoot {
		t.Fatalf("repo called with %v %v %q", repo.gotFrom, repo.gotTo, repo.gotType)
	}

	if _, err := svc.List(context.Background(), LogFilter{Type: "nope"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}

	repo.listErr = errors.New("db down")
	if _, err := svc.List(context.Background(), LogFilter{}); err == nil {
		t.Fatalf("expected repo error")
	}
}
