// Package server provides the HTTP server for the head collision monitor.
package server

import "sync"

// FaceTelemetry is one face slot's pose and motion for a single frame.
type FaceTelemetry struct {
	Slot    int     `json:"slot"`
	Pitch   float64 `json:"pitch"`
	Yaw     float64 `json:"yaw"`
	Roll    float64 `json:"roll"`
	DepthMM float64 `json:"depth_mm"`
	// Velocities are absent on a slot's first sighting.
	AngularVel       *float64 `json:"angular_vel,omitempty"`
	TranslationalVel *float64 `json:"translational_vel,omitempty"`
	RotationAlert    bool     `json:"rotation_alert"`
	TranslationAlert bool     `json:"translation_alert"`
}

// CollisionTelemetry is the collision state for a single frame.
type CollisionTelemetry struct {
	Contact   bool    `json:"contact"`
	Confirmed bool    `json:"confirmed"`
	Count     int     `json:"count"`
	IoU       float64 `json:"iou"`
}

// Telemetry is the full per-frame state the pipeline publishes.
type Telemetry struct {
	Timestamp int64              `json:"timestamp"`
	Faces     []FaceTelemetry    `json:"faces"`
	Collision CollisionTelemetry `json:"collision"`
}

// Hub is the hand-off point between the frame pipeline and the HTTP
// surfaces: the pipeline publishes the latest rendered JPEG and
// telemetry, handlers read them. The pipeline stays the camera's only
// reader.
type Hub struct {
	mu        sync.RWMutex
	jpeg      []byte
	seq       uint64
	telemetry *Telemetry
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// PublishFrame stores the latest rendered frame as JPEG bytes.
// The hub takes ownership of the slice.
func (h *Hub) PublishFrame(jpeg []byte) {
	h.mu.Lock()
	h.jpeg = jpeg
	h.seq++
	h.mu.Unlock()
}

// Frame returns the latest JPEG and its sequence number, or nil when no
// frame has been published yet.
func (h *Hub) Frame() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.seq
}

// PublishTelemetry stores the latest per-frame telemetry.
func (h *Hub) PublishTelemetry(t *Telemetry) {
	h.mu.Lock()
	h.telemetry = t
	h.mu.Unlock()
}

// Telemetry returns the latest published telemetry, or nil.
func (h *Hub) Telemetry() *Telemetry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.telemetry
}
