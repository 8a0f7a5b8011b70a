package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mixmeet/internal/usertoken"
	"mixmeet/pkg/domain"
	"mixmeet/pkg/store"
	"mixmeet/services/reservation/internal/app"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	core, err := app.New(app.Config{Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	verifier, err := usertoken.NewVerifier(usertoken.Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	srv, err := New(Config{App: core, TokenVerifier: verifier})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func mintToken(t *testing.T, phone string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   phone,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func sampleReservation() domain.Reservation {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	return domain.Reservation{
		Location:    "HQ",
		Room:        "A1",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Responsible: "ana",
	}
}

func TestReservationsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/reservations", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.StatusCode)
	}

	expired := jwt.RegisteredClaims{
		Subject:   "+5511999990000",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/reservations", stale, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", resp.StatusCode)
	}
}

func TestReservationCreateConflictAndRetrieve(t *testing.T) {
	ts := newTestServer(t)
	token := mintToken(t, "+5511999990000")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/reservations", token, sampleReservation())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc == "" {
		t.Fatal("expected Location header on create")
	}
	var created domain.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	overlap := sampleReservation()
	overlap.Location = "hq"
	overlap.Room = "a1"
	overlap.StartTime = overlap.StartTime.Add(30 * time.Minute)
	overlap.EndTime = overlap.EndTime.Add(30 * time.Minute)
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/reservations", token, overlap)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("overlap: expected 409, got %d", resp.StatusCode)
	}
	var errBody struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody.Code != "RESERVATION_CONFLICT" {
		t.Fatalf("unexpected error code: %q", errBody.Code)
	}

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/reservations/%d", ts.URL, created.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
}

func TestReservationCreateRejectsInvalidInterval(t *testing.T) {
	ts := newTestServer(t)
	token := mintToken(t, "+5511999990000")

	bad := sampleReservation()
	bad.StartTime, bad.EndTime = bad.EndTime, bad.StartTime
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/reservations", token, bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("inverted interval: expected 400, got %d", resp.StatusCode)
	}
}

func TestReservationUpdateAndDelete(t *testing.T) {
	ts := newTestServer(t)
	token := mintToken(t, "+5511999990000")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/reservations", token, sampleReservation())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var created domain.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	// Path id must match body id.
	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/reservations/%d", ts.URL, created.ID+1), token, created)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("id mismatch: expected 400, got %d", resp.StatusCode)
	}

	created.Responsible = "facilities"
	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/reservations/%d", ts.URL, created.ID), token, created)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("update: expected 204, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/reservations/%d", ts.URL, created.ID), token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/reservations/%d", ts.URL, created.ID), token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestReservationInvalidIDIsBadRequest(t *testing.T) {
	ts := newTestServer(t)
	token := mintToken(t, "+5511999990000")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/reservations/not-a-number", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUserProfileFlow(t *testing.T) {
	ts := newTestServer(t)
	const phone = "+5511999990000"
	token := mintToken(t, phone)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/users/me", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("me before registration: expected 404, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/users/nickname", token, map[string]string{"nickname": "ana"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set nickname: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/users/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	var me domain.User
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.PhoneNumber != phone || me.Nickname != "ana" {
		t.Fatalf("unexpected profile: %+v", me)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/users/nickname", token, map[string]string{"nickname": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank nickname: expected 400, got %d", resp.StatusCode)
	}
}
