package tray

import (
	"testing"
	"time"
)

func TestTitles(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"enabled", toggleTitle(true), "● Detection on"},
		{"disabled", toggleTitle(false), "○ Detection off"},
		{"attendance mode", modeTitle(""), "Mode: attendance"},
		{"enrolling", modeTitle("Alice"), "Mode: enrolling Alice"},
		{"no mark", lastMarkTitle("", time.Time{}), "Last: none"},
		{"last mark", lastMarkTitle("Bob", time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)), "Last: Bob at 09:05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New(nil, 0)
	if !tr.IsEnabled() {
		t.Fatal("new tray should start enabled")
	}

	var calls []bool
	tr.OnToggle(func(enabled bool) { calls = append(calls, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if !tr.IsEnabled() {
		t.Error("two toggles should leave detection on")
	}
	if len(calls) != 2 || calls[0] || !calls[1] {
		t.Errorf("toggle callbacks = %v", calls)
	}
}

func TestTray_SetStatusBeforeReady(t *testing.T) {
	tr := New(func() Status { return Status{} }, time.Millisecond)
	// Menu items do not exist until the tray runs.
	tr.SetStatus(Status{Enrolling: "Alice", LastName: "Bob", LastAt: time.Now()})

	called := false
	tr.OnDashboard(func() { called = true })
	tr.handleDashboard()
	if !called {
		t.Error("dashboard callback not run")
	}
}
