package store

import (
	"database/sql"
	"time"
)

// Enrollment records one completed face enrollment.
type Enrollment struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Samples     int       `json:"samples"`
	CompletedAt time.Time `json:"completed_at"`
}

// EnrollmentRepository stores enrollment history.
type EnrollmentRepository struct {
	db *sql.DB
}

// Enrollments returns the enrollment repository for this store.
func (s *Store) Enrollments() *EnrollmentRepository {
	return &EnrollmentRepository{db: s.db}
}

// Create records a completed enrollment.
func (r *EnrollmentRepository) Create(name string, samples int) (*Enrollment, error) {
	e := &Enrollment{Name: name, Samples: samples, CompletedAt: time.Now()}

	result, err := r.db.Exec(
		`INSERT INTO enrollments (name, samples, completed_at) VALUES (?, ?, ?)`,
		e.Name, e.Samples, e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	e.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns every enrollment, most recent first.
func (r *EnrollmentRepository) List() ([]Enrollment, error) {
	rows, err := r.db.Query(
		`SELECT id, name, samples, completed_at FROM enrollments ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.Name, &e.Samples, &e.CompletedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return enrollments, nil
}
