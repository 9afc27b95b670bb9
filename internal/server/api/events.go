// Package api provides HTTP API handlers for the head collision monitor.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavgupta/headguard/internal/store"
)

// EventsHandler handles HTTP requests for collision event resources.
type EventsHandler struct {
	store *store.Store
}

// NewEventsHandler creates a new EventsHandler with the given store.
func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/events or /api/events/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/events")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/events
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/events/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type eventResponse struct {
	ID          string  `json:"id"`
	OccurredAt  string  `json:"occurred_at"`
	SlotA       int     `json:"slot_a"`
	SlotB       int     `json:"slot_b"`
	IoU         float64 `json:"iou"`
	DepthDiffMM float64 `json:"depth_diff_mm"`
	DistanceMM  float64 `json:"distance_mm"`
	// Peak velocities across both faces at confirmation time.
	PeakAngular       float64 `json:"peak_angular"`
	PeakTranslational float64 `json:"peak_translational"`

	ClipPath  string `json:"clip_path,omitempty"`
	CreatedAt string `json:"created_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// toEventResponse converts a store.CollisionEvent to an eventResponse.
func toEventResponse(e *store.CollisionEvent) eventResponse {
	return eventResponse{
		ID:                e.ID,
		OccurredAt:        e.OccurredAt.Format(timeFormat),
		SlotA:             e.SlotA,
		SlotB:             e.SlotB,
		IoU:               e.IoU,
		DepthDiffMM:       e.DepthDiffMM,
		DistanceMM:        e.DistanceMM,
		PeakAngular:       e.PeakAngular,
		PeakTranslational: e.PeakTranslational,
		ClipPath:          e.ClipPath,
		CreatedAt:         e.CreatedAt.Format(timeFormat),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// parseLimit extracts the optional limit query parameter; 0 means all.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("invalid limit")
	}
	return limit, nil
}

// list handles GET /api/events and returns collision events newest first.
func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit parameter")
		return
	}

	events, err := h.store.Events().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	resp := listEventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// get handles GET /api/events/{id}.
func (h *EventsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	event, err := h.store.Events().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}
