package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Student is an entry in the enrollment roster. Only Name is used to
// correlate with the face gallery and the attendance ledger.
type Student struct {
	ID           string    `json:"uuid"`
	Name         string    `json:"name"`
	StudentID    string    `json:"id"`
	Department   string    `json:"department"`
	RegisteredAt time.Time `json:"registered_at"`
}

// StudentRepository provides CRUD operations for the roster.
type StudentRepository struct {
	db *sql.DB
}

// Students returns the student repository for this store.
func (s *Store) Students() *StudentRepository {
	return &StudentRepository{db: s.db}
}

// Create inserts a student, assigning an ID and registration time when unset.
func (r *StudentRepository) Create(st *Student) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return errors.New("student name is required")
	}
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.RegisteredAt.IsZero() {
		st.RegisteredAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO students (id, name, student_id, department, registered_at)
		 VALUES (?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.StudentID, st.Department, st.RegisteredAt,
	)
	return err
}

// GetByID retrieves a student by roster ID.
func (r *StudentRepository) GetByID(id string) (*Student, error) {
	return r.scanOne(
		`SELECT id, name, student_id, department, registered_at
		 FROM students WHERE id = ?`, id)
}

// GetByName retrieves the earliest registered student with name.
func (r *StudentRepository) GetByName(name string) (*Student, error) {
	return r.scanOne(
		`SELECT id, name, student_id, department, registered_at
		 FROM students WHERE name = ? ORDER BY registered_at LIMIT 1`, name)
}

func (r *StudentRepository) scanOne(query string, arg any) (*Student, error) {
	st := &Student{}
	err := r.db.QueryRow(query, arg).Scan(&st.ID, &st.Name, &st.StudentID, &st.Department, &st.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

// List retrieves the roster in registration order.
func (r *StudentRepository) List() ([]*Student, error) {
	rows, err := r.db.Query(
		`SELECT id, name, student_id, department, registered_at
		 FROM students ORDER BY registered_at, rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*Student
	for rows.Next() {
		st := &Student{}
		if err := rows.Scan(&st.ID, &st.Name, &st.StudentID, &st.Department, &st.RegisteredAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}

// Delete removes a student by roster ID.
func (r *StudentRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
