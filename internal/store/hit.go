package store

import (
	"database/sql"
	"errors"
	"time"
)

// SensorHit is one impact report parsed from a helmet accelerometer.
type SensorHit struct {
	ID            string
	PlayerName    string
	Team          string
	OccurredAt    time.Time
	AccelerationG float64
	// AngularVelocity is in deg/s; nil when the sensor did not report one.
	AngularVelocity *float64
	// Forwarded records whether the upstream API accepted this hit.
	Forwarded bool
	CreatedAt time.Time
}

// HitRepository provides CRUD operations for sensor hits.
type HitRepository struct {
	db *sql.DB
}

// Hits returns the sensor hit repository for this store.
func (s *Store) Hits() *HitRepository {
	return &HitRepository{db: s.db}
}

// Create inserts a new sensor hit into the database.
func (r *HitRepository) Create(h *SensorHit) error {
	h.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO sensor_hits (id, player_name, team, occurred_at, acceleration_g, angular_velocity, forwarded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.PlayerName, h.Team, h.OccurredAt, h.AccelerationG, h.AngularVelocity, boolToInt(h.Forwarded), h.CreatedAt,
	)
	return err
}

// GetByID retrieves a sensor hit by its ID.
func (r *HitRepository) GetByID(id string) (*SensorHit, error) {
	h := &SensorHit{}
	var forwarded int

	err := r.db.QueryRow(
		`SELECT id, player_name, team, occurred_at, acceleration_g, angular_velocity, forwarded, created_at
		 FROM sensor_hits WHERE id = ?`,
		id,
	).Scan(&h.ID, &h.PlayerName, &h.Team, &h.OccurredAt, &h.AccelerationG, &h.AngularVelocity, &forwarded, &h.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	h.Forwarded = forwarded != 0
	return h, nil
}

// List retrieves sensor hits newest first, up to limit.
// A limit of 0 or less returns all hits.
func (r *HitRepository) List(limit int) ([]*SensorHit, error) {
	query := `SELECT id, player_name, team, occurred_at, acceleration_g, angular_velocity, forwarded, created_at
		 FROM sensor_hits ORDER BY occurred_at DESC`
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

	var hits []*SensorHit
	for rows.Next() {
		h := &SensorHit{}
		var forwarded int
		if err := rows.Scan(&h.ID, &h.PlayerName, &h.Team, &h.OccurredAt, &h.AccelerationG, &h.AngularVelocity, &forwarded, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.Forwarded = forwarded != 0
		hits = append(hits, h)
	}

	return hits, rows.Err()
}

// MarkForwarded records that the upstream API accepted this hit.
func (r *HitRepository) MarkForwarded(id string) error {
	res, err := r.db.Exec(
		`UPDATE sensor_hits SET forwarded = 1 WHERE id = ?`,
		id,
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
