package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arnavgupta/headguard/internal/store"
)

// HitsHandler handles HTTP requests for sensor hit resources. POST is the
// ingest path used by the helmet sensor bridge.
type HitsHandler struct {
	store *store.Store
}

// NewHitsHandler creates a new HitsHandler with the given store.
func NewHitsHandler(s *store.Store) *HitsHandler {
	return &HitsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *HitsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/hits or /api/hits/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/hits")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/hits
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/hits/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createHitRequest struct {
	PlayerName      string   `json:"playerName"`
	Team            string   `json:"team"`
	OccurredAt      string   `json:"occurredAt"`
	AccelerationG   float64  `json:"accelerationG"`
	AngularVelocity *float64 `json:"angularVelocity,omitempty"`
}

type hitResponse struct {
	ID              string   `json:"id"`
	PlayerName      string   `json:"playerName"`
	Team            string   `json:"team"`
	OccurredAt      string   `json:"occurredAt"`
	AccelerationG   float64  `json:"accelerationG"`
	AngularVelocity *float64 `json:"angularVelocity,omitempty"`
	Forwarded       bool     `json:"forwarded"`
	CreatedAt       string   `json:"created_at"`
}

type listHitsResponse struct {
	Hits []hitResponse `json:"hits"`
}

// toHitResponse converts a store.SensorHit to a hitResponse.
func toHitResponse(h *store.SensorHit) hitResponse {
	return hitResponse{
		ID:              h.ID,
		PlayerName:      h.PlayerName,
		Team:            h.Team,
		OccurredAt:      h.OccurredAt.UTC().Format(timeFormat),
		AccelerationG:   h.AccelerationG,
		AngularVelocity: h.AngularVelocity,
		Forwarded:       h.Forwarded,
		CreatedAt:       h.CreatedAt.Format(timeFormat),
	}
}

// list handles GET /api/hits and returns sensor hits newest first.
func (h *HitsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit parameter")
		return
	}

	hits, err := h.store.Hits().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list hits")
		return
	}

	resp := listHitsResponse{Hits: make([]hitResponse, 0, len(hits))}
	for _, hit := range hits {
		resp.Hits = append(resp.Hits, toHitResponse(hit))
	}
	writeJSON(w, http.StatusOK, resp)
}

// create handles POST /api/hits.
func (h *HitsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createHitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PlayerName == "" {
		writeError(w, http.StatusBadRequest, "playerName is required")
		return
	}
	if req.AccelerationG <= 0 {
		writeError(w, http.StatusBadRequest, "accelerationG must be positive")
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "occurredAt must be RFC 3339")
			return
		}
		occurredAt = parsed.UTC()
	}

	hit := &store.SensorHit{
		ID:              uuid.New().String(),
		PlayerName:      req.PlayerName,
		Team:            req.Team,
		OccurredAt:      occurredAt,
		AccelerationG:   req.AccelerationG,
		AngularVelocity: req.AngularVelocity,
	}
	if err := h.store.Hits().Create(hit); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create hit")
		return
	}

	writeJSON(w, http.StatusCreated, toHitResponse(hit))
}

// get handles GET /api/hits/{id}.
func (h *HitsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	hit, err := h.store.Hits().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "hit not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get hit")
		return
	}
	writeJSON(w, http.StatusOK, toHitResponse(hit))
}
