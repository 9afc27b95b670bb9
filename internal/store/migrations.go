package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Collision events table - one row per confirmed head contact
		`CREATE TABLE IF NOT EXISTS collision_events (
			id TEXT PRIMARY KEY,
			occurred_at DATETIME NOT NULL,
			slot_a INTEGER NOT NULL,
			slot_b INTEGER NOT NULL,
			iou REAL NOT NULL,
			depth_diff_mm REAL NOT NULL,
			distance_mm REAL NOT NULL,
			peak_angular REAL NOT NULL DEFAULT 0,
			peak_translational REAL NOT NULL DEFAULT 0,
			clip_path TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sensor hits table - impact reports forwarded from helmet sensors
		`CREATE TABLE IF NOT EXISTS sensor_hits (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			team TEXT NOT NULL,
			occurred_at DATETIME NOT NULL,
			acceleration_g REAL NOT NULL,
			angular_velocity REAL,
			forwarded INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_collision_events_occurred_at ON collision_events(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_hits_occurred_at ON sensor_hits(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_hits_player ON sensor_hits(player_name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
