package store

import (
	"database/sql"
	"errors"
	"time"
)

// CollisionEvent is one confirmed head contact, persisted at the moment
// the confirmation edge fires.
type CollisionEvent struct {
	ID          string
	OccurredAt  time.Time
	SlotA       int
	SlotB       int
	IoU         float64
	DepthDiffMM float64
	DistanceMM  float64
	// Peak per-axis angular (deg/s) and translational (mm/s) velocity
	// across both faces at confirmation time; zero when no velocity was
	// available that frame.
	PeakAngular       float64
	PeakTranslational float64
	// ClipPath is the pre-event clip written for this episode, or empty
	// when the clip sink could not be opened.
	ClipPath  string
	CreatedAt time.Time
}

// EventRepository provides CRUD operations for collision events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the collision event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts a new collision event into the database.
func (r *EventRepository) Create(e *CollisionEvent) error {
	e.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO collision_events (id, occurred_at, slot_a, slot_b, iou, depth_diff_mm, distance_mm, peak_angular, peak_translational, clip_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OccurredAt, e.SlotA, e.SlotB, e.IoU, e.DepthDiffMM, e.DistanceMM, e.PeakAngular, e.PeakTranslational, e.ClipPath, e.CreatedAt,
	)
	return err
}

// GetByID retrieves a collision event by its ID.
func (r *EventRepository) GetByID(id string) (*CollisionEvent, error) {
	e := &CollisionEvent{}

	err := r.db.QueryRow(
		`SELECT id, occurred_at, slot_a, slot_b, iou, depth_diff_mm, distance_mm, peak_angular, peak_translational, clip_path, created_at
		 FROM collision_events WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.OccurredAt, &e.SlotA, &e.SlotB, &e.IoU, &e.DepthDiffMM, &e.DistanceMM, &e.PeakAngular, &e.PeakTranslational, &e.ClipPath, &e.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return e, nil
}

// List retrieves collision events newest first, up to limit.
// A limit of 0 or less returns all events.
func (r *EventRepository) List(limit int) ([]*CollisionEvent, error) {
	query := `SELECT id, occurred_at, slot_a, slot_b, iou, depth_diff_mm, distance_mm, peak_angular, peak_translational, clip_path, created_at
		 FROM collision_events ORDER BY occurred_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*CollisionEvent
	for rows.Next() {
		e := &CollisionEvent{}
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.SlotA, &e.SlotB, &e.IoU, &e.DepthDiffMM, &e.DistanceMM, &e.PeakAngular, &e.PeakTranslational, &e.ClipPath, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// SetClipPath records the clip file written for an event.
func (r *EventRepository) SetClipPath(id, clipPath string) error {
	res, err := r.db.Exec(
		`UPDATE collision_events SET clip_path = ? WHERE id = ?`,
		clipPath, id,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of stored collision events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM collision_events`).Scan(&n)
	return n, err
}
