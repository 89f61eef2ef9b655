package store

import (
	"database/sql"

	"github.com/ayusman/wavein/internal/attendance"
	"github.com/google/uuid"
)

// AttendanceRepository stores ledger rows. It satisfies attendance.RecordStore.
type AttendanceRepository struct {
	db *sql.DB
}

// Attendance returns the attendance repository for this store.
func (s *Store) Attendance() *AttendanceRepository {
	return &AttendanceRepository{db: s.db}
}

var _ attendance.RecordStore = (*AttendanceRepository)(nil)

// Load returns every record in insertion order.
func (r *AttendanceRepository) Load() ([]attendance.Record, error) {
	return r.query(`SELECT id, name, date, time, status FROM attendance ORDER BY rowid`)
}

// ByDate returns the records for one day.
func (r *AttendanceRepository) ByDate(date string) ([]attendance.Record, error) {
	return r.query(`SELECT id, name, date, time, status FROM attendance WHERE date = ? ORDER BY rowid`, date)
}

func (r *AttendanceRepository) query(q string, args ...any) ([]attendance.Record, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Date, &rec.Time, &status); err != nil {
			return nil, err
		}
		rec.Status = attendance.Status(status)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Append inserts one record, assigning an ID when unset.
func (r *AttendanceRepository) Append(rec attendance.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = attendance.Present
	}

	_, err := r.db.Exec(
		`INSERT INTO attendance (id, name, date, time, status) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Date, rec.Time, string(rec.Status),
	)
	return err
}

// Marked reports whether name already has a record on date.
func (r *AttendanceRepository) Marked(name, date string) (bool, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM attendance WHERE name = ? AND date = ?`,
		name, date,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
