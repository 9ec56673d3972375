package server

import (
	"net/http"
	"testing"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

func action(t *testing.T, env *testEnv, path string, body any, wantStatus int) ActionResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/devices/tablet-1"+path, body)
	if rec.Code != wantStatus {
		t.Fatalf("POST %s: status = %d, want %d: %s", path, rec.Code, wantStatus, rec.Body)
	}
	return decode[ActionResponse](t, rec)
}

func TestDeviceWalksRoute(t *testing.T) {
	env := newTestEnv(t)

	resp := action(t, env, "/scan", ScanRequest{Code: "sb-entree"}, http.StatusOK)
	if resp.Event.Kind != engine.EventTaskShown || resp.Event.Checkpoint.ID != "1" {
		t.Fatalf("unexpected event %+v", resp.Event)
	}

	resp = action(t, env, "/submit", SubmitRequest{Answer: "vos"}, http.StatusOK)
	if resp.Event.Kind != engine.EventAnswerRejected || resp.Event.State != engine.TaskActive {
		t.Fatalf("wrong answer: unexpected event %+v", resp.Event)
	}

	resp = action(t, env, "/hint", nil, http.StatusOK)
	if resp.Event.Hint == "" || resp.Event.HintsUsed != 1 {
		t.Fatalf("hint: unexpected event %+v", resp.Event)
	}

	resp = action(t, env, "/submit", SubmitRequest{Answer: " Een Eekhoorn "}, http.StatusOK)
	if resp.Event.Kind != engine.EventCheckpointCompleted || resp.Event.Navigation == nil {
		t.Fatalf("correct answer: unexpected event %+v", resp.Event)
	}

	resp = action(t, env, "/continue", nil, http.StatusOK)
	if resp.Event.State != engine.Scanning || resp.Event.Expected != "2" {
		t.Fatalf("continue: unexpected event %+v", resp.Event)
	}

	resp = action(t, env, "/scan", ScanRequest{Code: "SB-VIJVER"}, http.StatusConflict)
	if resp.Code != "out_of_order" || resp.Event.Kind != engine.EventScanRejected {
		t.Fatalf("out of order: unexpected response %+v", resp)
	}

	rec := env.do(t, http.MethodGet, "/api/devices/tablet-1/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state status = %d", rec.Code)
	}
	st := decode[DeviceStateResponse](t, rec)
	if st.Session.CompletedCount != 1 || st.Session.HintsUsedTotal != 1 || st.Session.ExpectedNext != "2" {
		t.Fatalf("unexpected session %+v", st.Session)
	}
	if !st.Scanner {
		t.Fatal("scanner should run while scanning")
	}
}

func TestDeviceActionErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := action(t, env, "/scan", ScanRequest{Code: "NIET-BESTAAND"}, http.StatusUnprocessableEntity)
	if resp.Code != "unrecognized_code" {
		t.Fatalf("code = %q, want unrecognized_code", resp.Code)
	}

	resp = action(t, env, "/submit", SubmitRequest{Answer: "x"}, http.StatusConflict)
	if resp.Code != "unexpected_event" || resp.Event != nil {
		t.Fatalf("submit while scanning: unexpected response %+v", resp)
	}

	resp = action(t, env, "/scan", ScanRequest{Code: "FINISH"}, http.StatusConflict)
	if resp.Code != "out_of_order" {
		t.Fatalf("early finish: code = %q, want out_of_order", resp.Code)
	}
}

func TestDeviceAttemptsExhausted(t *testing.T) {
	env := newTestEnv(t)

	action(t, env, "/scan", ScanRequest{Code: "SB-ENTREE"}, http.StatusOK)
	action(t, env, "/submit", SubmitRequest{Answer: "eekhoorn"}, http.StatusOK)
	action(t, env, "/continue", nil, http.StatusOK)
	action(t, env, "/scan", ScanRequest{Code: "SB-EIK"}, http.StatusOK)

	resp := action(t, env, "/submit", SubmitRequest{Answer: "50 jaar"}, http.StatusOK)
	if *resp.Event.AttemptsRemaining != 1 {
		t.Fatalf("attempts remaining = %d, want 1", *resp.Event.AttemptsRemaining)
	}
	resp = action(t, env, "/submit", SubmitRequest{Answer: "500 jaar"}, http.StatusLocked)
	if resp.Code != "attempts_exhausted" || !resp.Event.Locked || resp.Event.Hint == "" {
		t.Fatalf("unexpected response %+v", resp)
	}

	// The correct answer no longer counts once locked.
	action(t, env, "/submit", SubmitRequest{Answer: "150 jaar"}, http.StatusLocked)
}

func TestDevicePuzzleAndFinish(t *testing.T) {
	env := newTestEnv(t)

	action(t, env, "/scan", ScanRequest{Code: "SB-ENTREE"}, http.StatusOK)
	action(t, env, "/submit", SubmitRequest{Answer: "eekhoorn"}, http.StatusOK)
	action(t, env, "/continue", nil, http.StatusOK)
	action(t, env, "/scan", ScanRequest{Code: "SB-EIK"}, http.StatusOK)
	action(t, env, "/submit", SubmitRequest{Answer: "150 jaar"}, http.StatusOK)
	action(t, env, "/continue", nil, http.StatusOK)
	action(t, env, "/scan", ScanRequest{Code: "SB-SPEELTUIN"}, http.StatusOK)

	resp := action(t, env, "/submit", SubmitRequest{Answer: "SB-PUZZEL"}, http.StatusConflict)
	if resp.Code != "puzzle_needs_scan" {
		t.Fatalf("code = %q, want puzzle_needs_scan", resp.Code)
	}

	action(t, env, "/puzzle-scan", nil, http.StatusOK)
	resp = action(t, env, "/scan", ScanRequest{Code: "SB-ENTREE"}, http.StatusUnprocessableEntity)
	if resp.Code != "puzzle_mismatch" || resp.Event.State != engine.TaskActive {
		t.Fatalf("mismatch: unexpected response %+v", resp)
	}

	action(t, env, "/puzzle-scan", nil, http.StatusOK)
	action(t, env, "/scan", ScanRequest{Code: "sb-puzzel"}, http.StatusOK)
	action(t, env, "/continue", nil, http.StatusOK)
	action(t, env, "/scan", ScanRequest{Code: "SB-VIJVER"}, http.StatusOK)

	resp = action(t, env, "/hint", nil, http.StatusNotFound)
	if resp.Code != "no_hint" {
		t.Fatalf("code = %q, want no_hint", resp.Code)
	}

	resp = action(t, env, "/submit", SubmitRequest{Answer: "k7x"}, http.StatusOK)
	if resp.Event.Kind != engine.EventFinished || resp.Event.Outcome == nil || !resp.Event.Outcome.Rewarded {
		t.Fatalf("finish: unexpected event %+v", resp.Event)
	}
	if resp.Event.Progress.Completed != 4 || resp.Event.Progress.Fraction != 1 {
		t.Fatalf("unexpected progress %+v", resp.Event.Progress)
	}

	resp = action(t, env, "/scan", ScanRequest{Code: "SB-ENTREE"}, http.StatusConflict)
	if resp.Code != "scan_ignored" {
		t.Fatalf("code = %q, want scan_ignored", resp.Code)
	}

	resp = action(t, env, "/reset", nil, http.StatusOK)
	if resp.Event.Kind != engine.EventReset || resp.Event.Expected != "1" || resp.Event.HintsUsed != 0 {
		t.Fatalf("reset: unexpected event %+v", resp.Event)
	}
}

func TestDeviceProgressSurvivesRestart(t *testing.T) {
	env := newTestEnv(t)

	action(t, env, "/scan", ScanRequest{Code: "SB-ENTREE"}, http.StatusOK)
	action(t, env, "/hint", nil, http.StatusOK)
	action(t, env, "/submit", SubmitRequest{Answer: "eekhoorn"}, http.StatusOK)

	// A fresh registry on the same backend restores the device.
	registry := NewRegistry(env.backend, NewBroker(), quietLogger(), "", 0)
	t.Cleanup(func() { registry.Close() })
	if err := LoadStored(t.Context(), env.store, registry); err != nil {
		t.Fatalf("load stored: %v", err)
	}
	d, err := registry.Get(t.Context(), "tablet-1")
	if err != nil {
		t.Fatalf("get device: %v", err)
	}
	sess := d.Engine.Session()
	if d.Engine.State() != engine.Scanning || sess.ExpectedNext != "2" || sess.CompletedCount != 1 || sess.HintsUsedTotal != 1 {
		t.Fatalf("unexpected restored session %+v in %s", sess, d.Engine.State())
	}
}

func TestInvalidDeviceID(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/devices/bad%20id/state", "/api/devices/x.y/state"} {
		rec := env.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want %d", path, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/devices/tablet-1/scan", "not an object")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDevicesAreIsolated(t *testing.T) {
	env := newTestEnv(t)

	action(t, env, "/scan", ScanRequest{Code: "SB-ENTREE"}, http.StatusOK)

	rec := env.do(t, http.MethodGet, "/api/devices/tablet-2/state", nil)
	st := decode[DeviceStateResponse](t, rec)
	if st.Event.State != engine.Scanning || st.Session.CurrentCheckpointID != "" {
		t.Fatalf("second device shares state: %+v", st)
	}
}
