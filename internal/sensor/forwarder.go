package sensor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultForwardTimeout bounds one upstream POST.
const DefaultForwardTimeout = 10 * time.Second

// ForwarderConfig holds the upstream tracking API settings.
type ForwarderConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Forwarder POSTs impacts to the upstream tracking API.
type Forwarder struct {
	cfg    ForwarderConfig
	client *http.Client
}

// NewForwarder creates a Forwarder for the given API.
func NewForwarder(cfg ForwarderConfig) *Forwarder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultForwardTimeout
	}
	return &Forwarder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type impactPayload struct {
	PlayerName      string   `json:"playerName"`
	Team            string   `json:"team"`
	OccurredAt      string   `json:"occurredAt"`
	AccelerationG   float64  `json:"accelerationG"`
	AngularVelocity *float64 `json:"angularVelocity,omitempty"`
}

// Send POSTs one impact. Any status other than 200 or 201 is an error.
func (f *Forwarder) Send(ctx context.Context, imp Impact) error {
	payload := impactPayload{
		PlayerName:      imp.PlayerName,
		Team:            imp.Team,
		OccurredAt:      imp.OccurredAt.UTC().Format("2006-01-02T15:04:05Z"),
		AccelerationG:   imp.AccelerationG,
		AngularVelocity: imp.AngularVelocity,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode impact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.cfg.APIKey != "" {
		req.Header.Set("x-api-key", f.cfg.APIKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send impact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upstream rejected impact: HTTP %d", resp.StatusCode)
	}
	return nil
}
