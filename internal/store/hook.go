package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Hook events.
const (
	EventAttendanceMarked    = "attendance.marked"
	EventEnrollmentCompleted = "enrollment.completed"
)

// Hook binds an event to a plugin action.
type Hook struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HookRepository provides CRUD operations for hooks.
type HookRepository struct {
	db *sql.DB
}

// Hooks returns the hook repository for this store.
func (s *Store) Hooks() *HookRepository {
	return &HookRepository{db: s.db}
}

// Create inserts a new hook.
func (r *HookRepository) Create(h *Hook) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	h.CreatedAt = time.Now()

	config := h.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO hooks (id, event, plugin_name, action_name, config, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Event, h.PluginName, h.ActionName, string(config), h.Enabled, h.CreatedAt,
	)
	return err
}

// GetByID retrieves a hook by its ID.
func (r *HookRepository) GetByID(id string) (*Hook, error) {
	h := &Hook{}
	var config string
	var enabled int

	err := r.db.QueryRow(
		`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		 FROM hooks WHERE id = ?`,
		id,
	).Scan(&h.ID, &h.Event, &h.PluginName, &h.ActionName, &config, &enabled, &h.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	h.Config = json.RawMessage(config)
	h.Enabled = enabled != 0
	return h, nil
}

// List retrieves all hooks.
func (r *HookRepository) List() ([]*Hook, error) {
	return r.list(`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		FROM hooks ORDER BY created_at`)
}

// ForEvent retrieves the enabled hooks for event.
func (r *HookRepository) ForEvent(event string) ([]*Hook, error) {
	return r.list(`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		FROM hooks WHERE event = ? AND enabled = 1 ORDER BY created_at`, event)
}

func (r *HookRepository) list(query string, args ...any) ([]*Hook, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []*Hook
	for rows.Next() {
		h := &Hook{}
		var config string
		var enabled int

		if err := rows.Scan(&h.ID, &h.Event, &h.PluginName, &h.ActionName, &config, &enabled, &h.CreatedAt); err != nil {
			return nil, err
		}

		h.Config = json.RawMessage(config)
		h.Enabled = enabled != 0
		hooks = append(hooks, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hooks, nil
}

// SetEnabled turns a hook on or off.
func (r *HookRepository) SetEnabled(id string, enabled bool) error {
	result, err := r.db.Exec(`UPDATE hooks SET enabled = ? WHERE id = ?`, enabled, id)
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

// Delete removes a hook by its ID.
func (r *HookRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM hooks WHERE id = ?`, id)
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
