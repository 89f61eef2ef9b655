// Package plugin runs external hook programs when attendance is marked or an
// enrollment completes. A plugin is a directory holding a plugin.json manifest
// and an executable that reads one JSON Request on stdin and writes one JSON
// Response on stdout.
package plugin

import "encoding/json"

// Events a plugin can subscribe to.
const (
	EventAttendanceMarked    = "attendance.marked"
	EventEnrollmentCompleted = "enrollment.completed"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
	// Events the plugin wants without an explicit hook; the first action runs.
	Events       []string        `json:"events,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Subscribes reports whether the manifest lists event.
func (m Manifest) Subscribes(event string) bool {
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action string          `json:"action"`
	Event  string          `json:"event"`
	Config json.RawMessage `json:"config,omitempty"`
	// Payload is the event body, such as an attendance record.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
