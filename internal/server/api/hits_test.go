package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func postHit(t *testing.T, h *HitsHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/hits", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHitsHandler_Create(t *testing.T) {
	s := newTestStore(t)
	h := NewHitsHandler(s)

	rec := postHit(t, h, `{
		"playerName": "Player 7",
		"team": "home",
		"occurredAt": "2024-03-09T14:05:33Z",
		"accelerationG": 3.4,
		"angularVelocity": 95.0
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp hitResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.PlayerName != "Player 7" || resp.AccelerationG != 3.4 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.AngularVelocity == nil || *resp.AngularVelocity != 95.0 {
		t.Errorf("angularVelocity = %v, want 95.0", resp.AngularVelocity)
	}
	if resp.Forwarded {
		t.Error("new hit should not be marked forwarded")
	}

	// The hit must be retrievable afterwards.
	got, err := s.Hits().GetByID(resp.ID)
	if err != nil {
		t.Fatalf("failed to get created hit: %v", err)
	}
	if got.OccurredAt.UTC().Format("2006-01-02T15:04:05Z") != "2024-03-09T14:05:33Z" {
		t.Errorf("occurredAt = %v", got.OccurredAt)
	}
}

func TestHitsHandler_CreateValidation(t *testing.T) {
	s := newTestStore(t)
	h := NewHitsHandler(s)

	tests := []struct {
		name string
		body string
	}{
		{"missing player", `{"team": "home", "accelerationG": 2.5}`},
		{"non-positive acceleration", `{"playerName": "P", "accelerationG": 0}`},
		{"bad timestamp", `{"playerName": "P", "accelerationG": 2.5, "occurredAt": "yesterday"}`},
		{"malformed JSON", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postHit(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHitsHandler_List(t *testing.T) {
	s := newTestStore(t)
	h := NewHitsHandler(s)

	postHit(t, h, `{"playerName": "A", "accelerationG": 2.1}`)
	postHit(t, h, `{"playerName": "B", "accelerationG": 3.0}`)

	req := httptest.NewRequest(http.MethodGet, "/api/hits", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp listHitsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Hits) != 2 {
		t.Errorf("len = %d, want 2", len(resp.Hits))
	}
}
