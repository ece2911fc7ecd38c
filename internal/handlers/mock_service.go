package handlers

import (
	"context"
	"net/http"
	"time"

	"homestate/internal/models"
	"homestate/internal/service"

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

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockControl struct {
	state        models.HomeState
	snapshotErr  error
	bootstrapErr error
	setDeviceErr error
	setModeErr   error
	setKillErr   error
	resetErr     error

	lastDeviceID   models.DeviceID
	lastDeviceOn   bool
	lastMode       models.Mode
	lastKill       bool
	setDeviceCalls int
	setModeCalls   int
	setKillCalls   int
	resetCalls     int
}

func (m *mockControl) Bootstrap(ctx context.Context) error { return m.bootstrapErr }
func (m *mockControl) Snapshot(ctx context.Context) (models.HomeState, error) {
	return m.state, m.snapshotErr
}
func (m *mockControl) SetDevice(ctx context.Context, id models.DeviceID, on bool) error {
	m.setDeviceCalls++
	m.lastDeviceID = id
	m.lastDeviceOn = on
	return m.setDeviceErr
}
func (m *mockControl) SetMode(ctx context.Context, mode models.Mode) error {
	m.setModeCalls++
	m.lastMode = mode
	return m.setModeErr
}
func (m *mockControl) SetKillSwitch(ctx context.Context, on bool) error {
	m.setKillCalls++
	m.lastKill = on
	return m.setKillErr
}
func (m *mockControl) Reset(ctx context.Context) error {
	m.resetCalls++
	return m.resetErr
}

type mockTimers struct {
	scheduleRec models.TimerRecord
	scheduleErr error
	cancelOK    bool
	cancelErr   error

	lastSchedule  service.ScheduleParams
	scheduleCalls int
	cancelCalls   int
}

func (m *mockTimers) Schedule(ctx context.Context, p service.ScheduleParams) (models.TimerRecord, error) {
	m.scheduleCalls++
	m.lastSchedule = p
	return m.scheduleRec, m.scheduleErr
}
func (m *mockTimers) Cancel(ctx context.Context) (bool, error) {
	m.cancelCalls++
	return m.cancelOK, m.cancelErr
}
func (m *mockTimers) Run(ctx context.Context) {}

type mockPresence struct {
	heartbeatErr error
	status       models.Presence
	statusErr    error

	lastMeta       models.HeartbeatMeta
	heartbeatCalls int
}

func (m *mockPresence) Heartbeat(ctx context.Context, meta models.HeartbeatMeta) error {
	m.heartbeatCalls++
	m.lastMeta = meta
	return m.heartbeatErr
}
func (m *mockPresence) Status(ctx context.Context) (models.Presence, error) {
	return m.status, m.statusErr
}
func (m *mockPresence) Run(ctx context.Context) {}

type mockEventLog struct {
	resp     []models.HomeEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.HomeEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
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
