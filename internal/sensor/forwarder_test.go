package sensor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestForwarder_Send(t *testing.T) {
	var got impactPayload
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	f := NewForwarder(ForwarderConfig{URL: srv.URL, APIKey: "secret"})

	imp := Impact{
		PlayerName:    "Player 7",
		Team:          "home",
		OccurredAt:    time.Date(2024, 3, 9, 14, 5, 33, 0, time.UTC),
		AccelerationG: 3.5,
	}
	if err := f.Send(context.Background(), imp); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotKey != "secret" {
		t.Errorf("x-api-key = %q, want %q", gotKey, "secret")
	}
	if got.PlayerName != "Player 7" || got.Team != "home" {
		t.Errorf("payload identity = %q/%q", got.PlayerName, got.Team)
	}
	if got.OccurredAt != "2024-03-09T14:05:33Z" {
		t.Errorf("occurredAt = %q", got.OccurredAt)
	}
	if got.AccelerationG != 3.5 {
		t.Errorf("accelerationG = %f, want 3.5", got.AccelerationG)
	}
	if got.AngularVelocity != nil {
		t.Errorf("angularVelocity = %v, want omitted", got.AngularVelocity)
	}
}

func TestForwarder_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewForwarder(ForwarderConfig{URL: srv.URL})

	err := f.Send(context.Background(), Impact{PlayerName: "P", AccelerationG: 2.5, OccurredAt: time.Now()})
	if err == nil {
		t.Fatal("want error for non-2xx status")
	}
}

func TestForwarder_SendConnectionError(t *testing.T) {
	// A server that is already closed refuses connections.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewForwarder(ForwarderConfig{URL: srv.URL})

	err := f.Send(context.Background(), Impact{PlayerName: "P", AccelerationG: 2.5, OccurredAt: time.Now()})
	if err == nil {
		t.Fatal("want error for unreachable upstream")
	}
}
