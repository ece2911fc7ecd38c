package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homestate/internal/models"
	"homestate/internal/service"
)

func TestTimerHandlers_ScheduleAndCancel(t *testing.T) {
	now := time.Now().UnixMilli()
	rec := models.TimerRecord{
		ID:        "t-1",
		Devices:   []models.DeviceID{models.DeviceLed1, models.DeviceFan},
		Action:    models.ActionOff,
		StartedAt: now,
		EndsAt:    now + 300_000,
		Active:    true,
	}
	auth := &mockAuth{parseID: 7}
	tm := &mockTimers{scheduleRec: rec, cancelOK: true}
	s := &service.Service{Authorization: auth, Timers: tm}
	r := newTestRouter(s)

	// Schedule requires auth → 401 without header
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timer", bytes.NewBufferString(`{"devices":["led1"],"action":"off","duration_sec":300}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// Schedule with auth → 200, parameters passed through, record echoed
	body := bytes.NewBufferString(`{"devices":["led1","fan"],"action":"off","duration_sec":300}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/timer", body)
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule status=%d, body=%s", w.Code, w.Body.String())
	}
	if tm.scheduleCalls != 1 {
		t.Fatalf("expected Schedule to be called once, got %d", tm.scheduleCalls)
	}
	got := tm.lastSchedule
	if len(got.Devices) != 2 || got.Devices[0] != models.DeviceLed1 || got.Devices[1] != models.DeviceFan {
		t.Fatalf("wrong devices: %+v", got.Devices)
	}
	if got.Action != models.ActionOff || got.DurationSec != 300 {
		t.Fatalf("wrong schedule params: %+v", got)
	}
	var schedResp struct {
		Status string             `json:"status"`
		Timer  models.TimerRecord `json:"timer"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &schedResp); err != nil {
		t.Fatalf("unmarshal schedule response: %v", err)
	}
	if schedResp.Status != statusTimerSet || schedResp.Timer.ID != "t-1" || !schedResp.Timer.Active {
		t.Fatalf("bad schedule response: %+v", schedResp)
	}

	// Missing duration → 400 at the binding layer, service untouched
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/timer", bytes.NewBufferString(`{"devices":["led1"],"action":"off"}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing duration, got %d", w.Code)
	}
	if tm.scheduleCalls != 1 {
		t.Fatalf("Schedule should not run on bad body, calls=%d", tm.scheduleCalls)
	}

	// Service-side validation failure → 400 with the reason
	tm.scheduleErr = service.ErrInvalidDuration
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/timer", bytes.NewBufferString(`{"devices":["led1"],"action":"off","duration_sec":999999}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range duration, got %d (body=%s)", w.Code, w.Body.String())
	}
	tm.scheduleErr = nil

	// Cancel with a pending record → cancelled true
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/timer", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status=%d, body=%s", w.Code, w.Body.String())
	}
	var cancelResp struct {
		Status    string `json:"status"`
		Cancelled bool   `json:"cancelled"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &cancelResp)
	if cancelResp.Status != statusTimerCancelled || !cancelResp.Cancelled {
		t.Fatalf("bad cancel response: %+v", cancelResp)
	}

	// Cancel with nothing pending → still 200, cancelled false
	tm.cancelOK = false
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/timer", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("idle cancel status=%d, body=%s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &cancelResp)
	if cancelResp.Cancelled {
		t.Fatalf("expected cancelled=false with no pending record")
	}
	if tm.cancelCalls != 2 {
		t.Fatalf("expected 2 Cancel calls, got %d", tm.cancelCalls)
	}
}
