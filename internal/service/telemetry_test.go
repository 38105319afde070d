package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"brewtemp/internal/config"
	"brewtemp/internal/models"
	"brewtemp/internal/telemetry"
)

type fakeTransport struct {
	published  []map[string]float64
	devices    []string
	values     map[string]float64
	publishErr error
	readErr    error

	resubscribed [][]string
}

func (f *fakeTransport) Publish(_ context.Context, device string, values map[string]float64) error {
	f.devices = append(f.devices, device)
	f.published = append(f.published, values)
	return f.publishErr
}

func (f *fakeTransport) LastValue(_ context.Context, _ string, label string) (float64, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	v, ok := f.values[label]
	if !ok {
		return 0, telemetry.ErrNoValue
	}
	return v, nil
}

func (f *fakeTransport) Resubscribe(_ context.Context, _ string, labels []string) error {
	f.resubscribed = append(f.resubscribed, labels)
	return nil
}

func (f *fakeTransport) Close() error { return nil }

func newTelemetryRig(t *testing.T, tcfg config.TelemetryConfig) (*rig, *fakeTransport, *TelemetryService) {
	t.Helper()
	r := newRig(t, models.ModeStandby, 18)
	tr := &fakeTransport{values: map[string]float64{}}
	svc := NewTelemetryService(tr, tcfg, r.device, NewMonitoringService(r.states, 18), r.events)
	return r, tr, svc
}

func TestTelemetry_PublishesReadings(t *testing.T) {
	r, tr, svc := newTelemetryRig(t, config.Default().Telemetry)
	r.states.state = models.DeviceState{ID: 1, FermenterTempC: 19.25, FreezerTempC: 12.5, OutputSeconds: -7}

	if err := svc.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	want := map[string]float64{"tempferm": 19.25, "tempcong": 12.5, "outputtime": -7}
	if len(tr.published) != 1 || !reflect.DeepEqual(tr.published[0], want) {
		t.Fatalf("published = %v, want %v", tr.published, want)
	}
	if tr.devices[0] != "brewtemp" {
		t.Fatalf("device label = %q", tr.devices[0])
	}
	if r.store.saves != 0 {
		t.Fatalf("no controls set, nothing should be saved")
	}
}

func TestTelemetry_AppliesControls(t *testing.T) {
	r, tr, svc := newTelemetryRig(t, config.Default().Telemetry)
	tr.values["mode"] = 2
	tr.values["tempset"] = 14.5
	tr.values["ramphours"] = 3

	if err := svc.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	got := r.settings.Current()
	if got.Mode != models.ModeCool || got.TempSet != 14.5 || got.RampHours != 3 {
		t.Fatalf("controls not applied: %+v", got)
	}
	evs := r.events.ofType(models.EventModeChange)
	if len(evs) != 1 || evs[0].Metadata.(map[string]any)["source"] != SourceCloud {
		t.Fatalf("expected one cloud MODE_CHANGE event, got %+v", evs)
	}

	// unchanged values produce no further writes
	saves := r.store.saves
	if err := svc.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if r.store.saves != saves {
		t.Fatalf("unchanged controls should not be saved again")
	}
}

func TestTelemetry_LaterRevisionReadsOffset(t *testing.T) {
	r, tr, svc := newTelemetryRig(t, config.DefaultsFor(config.Revision2).Telemetry)
	tr.values["offset"] = -0.5
	tr.values["ramphours"] = 6

	if err := svc.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	got := r.settings.Current()
	if got.Offset != -0.5 {
		t.Fatalf("offset = %v, want -0.5", got.Offset)
	}
	if got.RampHours != 0 {
		t.Fatalf("revision without a ramp label must not read it, got %d", got.RampHours)
	}
}

func TestTelemetry_RejectedControlIsLoggedOnce(t *testing.T) {
	r, tr, svc := newTelemetryRig(t, config.Default().Telemetry)
	tr.values["mode"] = 2
	tr.values["tempset"] = 45
	ctx := context.Background()

	err := svc.Cycle(ctx)
	if !errors.Is(err, ErrTempSetOutOfRange) {
		t.Fatalf("Cycle() err = %v, want ErrTempSetOutOfRange", err)
	}
	if got := r.settings.Current().Mode; got != models.ModeCool {
		t.Fatalf("valid mode must be applied alongside a rejected tempset, got %s", got)
	}
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("same rejected value again: %v", err)
	}
	if n := len(r.events.ofType(models.EventTelemetry)); n != 1 {
		t.Fatalf("TELEMETRY events = %d, want 1", n)
	}
	if svc.Failures() != 0 {
		t.Fatalf("a rejected value is not a transport failure")
	}

	// a new cloud value is tried again
	tr.values["tempset"] = 16
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if got := r.settings.Current().TempSet; got != 16 {
		t.Fatalf("tempset = %v, want 16", got)
	}
}

func TestTelemetry_InvalidModeCodeIsRejected(t *testing.T) {
	r, tr, svc := newTelemetryRig(t, config.Default().Telemetry)
	tr.values["mode"] = 9

	if err := svc.Cycle(context.Background()); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("Cycle() err = %v, want ErrInvalidMode", err)
	}
	if svc.Failures() != 0 {
		t.Fatalf("failures = %d, want 0", svc.Failures())
	}
	if n := len(r.events.ofType(models.EventTelemetry)); n != 1 {
		t.Fatalf("TELEMETRY events = %d, want 1", n)
	}
	if got := r.settings.Current().Mode; got != models.ModeStandby {
		t.Fatalf("mode = %s, want STANDBY", got)
	}
}

func TestTelemetry_LocalChangeSurvivesUnchangedCloud(t *testing.T) {
	r, tr, svc := newTelemetryRig(t, config.Default().Telemetry)
	tr.values["mode"] = 0
	tr.values["tempset"] = 18
	ctx := context.Background()

	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if _, err := r.device.ApplySettings(ctx, models.SettingsPatch{Mode: ptr(models.ModeHeat), TempSet: ptr(20.0)}, SourceAPI); err != nil {
		t.Fatalf("ApplySettings: %v", err)
	}
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	got := r.settings.Current()
	if got.Mode != models.ModeHeat || got.TempSet != 20 {
		t.Fatalf("local change overwritten by unchanged cloud values: %+v", got)
	}

	tr.values["mode"] = 2
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	got = r.settings.Current()
	if got.Mode != models.ModeCool || got.TempSet != 20 {
		t.Fatalf("only the changed cloud control should apply: %+v", got)
	}
}

func TestTelemetry_ResubscribesAfterMaxFailures(t *testing.T) {
	tcfg := config.Default().Telemetry
	tcfg.MaxConsecutiveFailures = 3
	r, tr, svc := newTelemetryRig(t, tcfg)
	tr.readErr = errors.New("timeout")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = svc.Cycle(ctx)
	}
	if len(tr.resubscribed) != 0 || svc.Failures() != 2 {
		t.Fatalf("resubscribed too early: %v, failures %d", tr.resubscribed, svc.Failures())
	}
	_ = svc.Cycle(ctx)
	if len(tr.resubscribed) != 1 {
		t.Fatalf("expected 1 resubscription, got %d", len(tr.resubscribed))
	}
	if want := tcfg.Labels.Controls(); !reflect.DeepEqual(tr.resubscribed[0], want) {
		t.Fatalf("resubscribed to %v, want %v", tr.resubscribed[0], want)
	}
	if svc.Failures() != 0 {
		t.Fatalf("counter should restart after resubscribing")
	}
	if n := len(r.events.ofType(models.EventTelemetry)); n != 1 {
		t.Fatalf("TELEMETRY events = %d, want 1", n)
	}

	// a good cycle resets the count
	_ = svc.Cycle(ctx)
	tr.readErr = nil
	if err := svc.Cycle(ctx); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if svc.Failures() != 0 {
		t.Fatalf("failures = %d after success", svc.Failures())
	}
}

func TestTelemetry_NoLimitNeverResubscribes(t *testing.T) {
	_, tr, svc := newTelemetryRig(t, config.DefaultsFor(config.Revision3).Telemetry)
	tr.publishErr = errors.New("unreachable")

	for i := 0; i < 250; i++ {
		_ = svc.Cycle(context.Background())
	}
	if len(tr.resubscribed) != 0 {
		t.Fatalf("resubscribed %d times with no failure limit", len(tr.resubscribed))
	}
	if svc.Failures() != 250 {
		t.Fatalf("failures = %d, want 250", svc.Failures())
	}
}
