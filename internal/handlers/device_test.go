package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"brewtemp/internal/config"
	"brewtemp/internal/metrics"
	"brewtemp/internal/models"
	"brewtemp/internal/service"

	"github.com/gin-gonic/gin"
)

func doRequest(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["status"] != statusOK || m["boot_reason"] != "NORMAL" || m["revision"] != "r1" {
		t.Fatalf("unexpected health body: %v", m)
	}
	if _, ok := m["version"]; !ok {
		t.Fatalf("version missing: %v", m)
	}
}

func TestDeviceHandlers_GetState(t *testing.T) {
	mon := &mockMonitoring{state: models.DeviceState{ID: 1, Mode: models.ModeHeat, FermenterTempC: 18.5, HeatOn: true}}
	s := &service.Service{Authorization: &mockAuth{parseID: 7}, Monitoring: mon}
	r := newTestRouter(s)

	// requires auth
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/device/state", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/device/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d, body=%s", w.Code, w.Body.String())
	}
	var st models.DeviceState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.Mode != models.ModeHeat || st.FermenterTempC != 18.5 || !st.HeatOn {
		t.Fatalf("unexpected state: %+v", st)
	}

	mon.err = errors.New("db down")
	if w := doRequest(r, http.MethodGet, "/api/v1/device/state", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestDeviceHandlers_SetRelays(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{name: "heat on", body: `{"heat":true}`, wantCode: http.StatusOK},
		{name: "bad body", body: `{"heat":"yes"}`, wantCode: http.StatusBadRequest},
		{name: "conflict", body: `{"heat":true,"cool":true}`, err: service.ErrRelayConflict, wantCode: http.StatusBadRequest},
		{name: "mode forbids", body: `{"cool":true}`, err: fmt.Errorf("%w: cool in HEAT", service.ErrModeForbids), wantCode: http.StatusConflict},
		{name: "interlock", body: `{"heat":true}`, err: service.ErrSafetyInterlock, wantCode: http.StatusConflict},
		{name: "storage failure", body: `{"heat":true}`, err: errors.New("disk full"), wantCode: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dev := &mockDevice{relaysErr: tc.err, state: models.DeviceState{ID: 1, Mode: models.ModeHeatCool}}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Device: dev})

			w := doRequest(r, http.MethodPost, "/api/v1/device/relays", bytes.NewBufferString(tc.body))
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d, body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantCode != http.StatusOK {
				return
			}
			if dev.relaysCalls != 1 || !dev.lastRelays.Heat || dev.lastRelays.Cool {
				t.Fatalf("SetRelays calls=%d cmd=%+v", dev.relaysCalls, dev.lastRelays)
			}
			var resp struct {
				Status string             `json:"status"`
				State  models.DeviceState `json:"state"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Status != statusRelaysSet || !resp.State.HeatOn {
				t.Fatalf("bad response: %+v", resp)
			}
		})
	}
}

func TestDeviceHandlers_Settings(t *testing.T) {
	dev := &mockDevice{settings: models.Settings{DeviceLabel: "brewtemp", Mode: models.ModeStandby, TempSet: 18, Token: "BBFF-secret"}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Device: dev})

	w := doRequest(r, http.MethodGet, "/api/v1/device/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get settings status=%d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("BBFF-secret")) {
		t.Fatalf("token leaked: %s", w.Body.String())
	}

	w = doRequest(r, http.MethodPut, "/api/v1/device/settings", bytes.NewBufferString(`{"mode":"heat_cool","tempset":19.5}`))
	if w.Code != http.StatusOK {
		t.Fatalf("put settings status=%d, body=%s", w.Code, w.Body.String())
	}
	if dev.lastSource != service.SourceAPI {
		t.Fatalf("source = %q", dev.lastSource)
	}
	if dev.lastPatch.Mode == nil || *dev.lastPatch.Mode != models.ModeHeatCool {
		t.Fatalf("mode not normalized: %+v", dev.lastPatch.Mode)
	}
	if dev.lastPatch.TempSet == nil || *dev.lastPatch.TempSet != 19.5 || dev.lastPatch.RampHours != nil {
		t.Fatalf("unexpected patch: %+v", dev.lastPatch)
	}
	var resp struct {
		Status   string          `json:"status"`
		Settings models.Settings `json:"settings"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusSettingsOK || resp.Settings.Token != "*redacted*" || resp.Settings.TempSet != 19.5 {
		t.Fatalf("bad response: %+v", resp)
	}

	dev.applyErr = fmt.Errorf("%w: 45.0 not in [0.1, 30.0]", service.ErrTempSetOutOfRange)
	if w := doRequest(r, http.MethodPut, "/api/v1/device/settings", bytes.NewBufferString(`{"tempset":45}`)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	dev.applyErr = errors.New("io error")
	if w := doRequest(r, http.MethodPut, "/api/v1/device/settings", bytes.NewBufferString(`{"tempset":20}`)); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestDeviceHandlers_ConfigIsRedacted(t *testing.T) {
	cfg := config.Default()
	cfg.AP.Password = "hunter2"
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Device: &mockDevice{cfg: cfg}})

	w := doRequest(r, http.MethodGet, "/api/v1/device/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("config status=%d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("hunter2")) {
		t.Fatalf("AP password leaked: %s", w.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		service.ErrInvalidMode:                               http.StatusBadRequest,
		service.ErrInvalidRampHours:                          http.StatusBadRequest,
		service.ErrModeForbids:                               http.StatusConflict,
		errors.New("anything else"):                          http.StatusInternalServerError,
		fmt.Errorf("wrapped: %w", service.ErrSafetyInterlock): http.StatusConflict,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("statusFor(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	mon := &mockMonitoring{state: models.DeviceState{ID: 1, HeatOn: true}}
	s := &service.Service{Monitoring: mon}
	gin.SetMode(gin.TestMode)
	r := NewHandler(s, nil, service.BootInfo{}).WithMetrics(metrics.New(mon)).InitRoutes()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`brewtemp_relay_on{relay="heat"} 1`)) {
		t.Fatalf("relay gauge missing: %s", w.Body.String())
	}
}
