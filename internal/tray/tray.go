// Package tray provides the system tray menu of a running wavein instance.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// Status is what the tray shows about the running pipeline.
type Status struct {
	Enrolling string
	LastName  string
	LastAt    time.Time
}

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	status      func() Status
	refresh     time.Duration
	enabled     bool
	mu          sync.RWMutex

	menuToggle   *systray.MenuItem
	menuLastMark *systray.MenuItem
	menuMode     *systray.MenuItem
	done         chan struct{}
}

// New creates a new Tray with detection enabled. status is polled every
// refresh interval to update the menu; it may be nil.
func New(status func() Status, refresh time.Duration) *Tray {
	if refresh <= 0 {
		refresh = time.Second
	}
	return &Tray{
		status:  status,
		refresh: refresh,
		enabled: true,
		done:    make(chan struct{}),
	}
}

// OnToggle sets the callback run when detection is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback run when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback run when quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called and must run on
// the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("wavein")
	systray.SetTooltip("wavein attendance")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle attendance detection")
	systray.AddSeparator()

	t.menuMode = systray.AddMenuItem(modeTitle(""), "Current mode")
	t.menuMode.Disable()
	t.menuLastMark = systray.AddMenuItem(lastMarkTitle("", time.Time{}), "Last attendance marked")
	t.menuLastMark.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit wavein")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			case <-t.done:
				return
			}
		}
	}()

	if t.status != nil {
		go t.poll()
	}
}

func (t *Tray) poll() {
	ticker := time.NewTicker(t.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.SetStatus(t.status())
		}
	}
}

func (t *Tray) onExit() {
	close(t.done)
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the mode and last-mark items.
func (t *Tray) SetStatus(st Status) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuMode != nil {
		t.menuMode.SetTitle(modeTitle(st.Enrolling))
	}
	if t.menuLastMark != nil {
		t.menuLastMark.SetTitle(lastMarkTitle(st.LastName, st.LastAt))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Detection on"
	}
	return "○ Detection off"
}

func modeTitle(enrolling string) string {
	if enrolling == "" {
		return "Mode: attendance"
	}
	return "Mode: enrolling " + enrolling
}

func lastMarkTitle(name string, at time.Time) string {
	if name == "" {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s at %s", name, at.Format("15:04"))
}
