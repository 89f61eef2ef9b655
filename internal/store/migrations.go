package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Students table - the enrollment roster
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			student_id TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			registered_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Attendance table - append-only ledger rows; per-day uniqueness is
		// enforced by the ledger at write time
		`CREATE TABLE IF NOT EXISTS attendance (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Present',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Enrollments table - one row per completed face enrollment
		`CREATE TABLE IF NOT EXISTS enrollments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			samples INTEGER NOT NULL,
			completed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Hooks table - plugins to run on attendance and enrollment events
		`CREATE TABLE IF NOT EXISTS hooks (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL CHECK(event IN ('attendance.marked', 'enrollment.completed')),
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_students_name ON students(name)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_name_date ON attendance(name, date)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date)`,
		`CREATE INDEX IF NOT EXISTS idx_hooks_event ON hooks(event)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
