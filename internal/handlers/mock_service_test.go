package handlers

import (
	"context"
	"net/http"
	"time"

	"brewtemp/internal/config"
	"brewtemp/internal/models"
	"brewtemp/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockDevice struct {
	state       models.DeviceState
	relaysErr   error
	lastRelays  models.RelayCommand
	relaysCalls int

	settings     models.Settings
	applyErr     error
	lastPatch    models.SettingsPatch
	lastSource   string
	applyCalls   int
	cfg          config.DeviceConfiguration
	bootCalls    int
	lastBootInfo service.BootInfo
}

func (m *mockDevice) SetRelays(_ context.Context, cmd models.RelayCommand) (models.DeviceState, error) {
	m.relaysCalls++
	m.lastRelays = cmd
	if m.relaysErr != nil {
		return models.DeviceState{}, m.relaysErr
	}
	st := m.state
	st.HeatOn, st.CoolOn = cmd.Heat, cmd.Cool
	return st, nil
}
func (m *mockDevice) ApplySettings(_ context.Context, p models.SettingsPatch, source string) (models.Settings, error) {
	m.applyCalls++
	m.lastPatch = p
	m.lastSource = source
	if m.applyErr != nil {
		return models.Settings{}, m.applyErr
	}
	m.settings = p.Apply(m.settings)
	return m.settings, nil
}
func (m *mockDevice) Settings(context.Context) models.Settings { return m.settings }
func (m *mockDevice) Config() config.DeviceConfiguration { return m.cfg }
func (m *mockDevice) Boot(_ context.Context, info service.BootInfo) error {
	m.bootCalls++
	m.lastBootInfo = info
	return nil
}

type mockMonitoring struct {
	state models.DeviceState
	err   error
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.DeviceState, error) {
	return m.state, m.err
}

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, service.BootInfo{Reason: "NORMAL", Revision: "r1"})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
