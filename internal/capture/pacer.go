package capture

import "time"

// Frame rate defaults for the idle/active pacing.
const (
	IdleFPS            = 5
	ActiveFPS          = 15
	DefaultIdleTimeout = 2 * time.Second
)

// Pacer switches between an idle and an active frame rate. Motion moves it
// to active at once; it drops back to idle after IdleTimeout without motion.
type Pacer struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration

	active     bool
	lastMotion time.Time
}

// NewPacer returns a pacer with the default rates, starting idle.
func NewPacer() *Pacer {
	return &Pacer{
		IdleFPS:     IdleFPS,
		ActiveFPS:   ActiveFPS,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// Observe records whether the latest frame had motion and returns the frame
// rate to use along with whether it changed.
func (p *Pacer) Observe(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		p.lastMotion = now
		if !p.active {
			p.active = true
			changed = true
		}
	case p.active && now.Sub(p.lastMotion) > p.IdleTimeout:
		p.active = false
		changed = true
	}
	return p.FPS(), changed
}

// Active reports whether the pacer is at the active rate.
func (p *Pacer) Active() bool {
	return p.active
}

// FPS returns the current frame rate.
func (p *Pacer) FPS() int {
	if p.active {
		return p.ActiveFPS
	}
	return p.IdleFPS
}

// Interval returns the time between frames at the current rate.
func (p *Pacer) Interval() time.Duration {
	fps := p.FPS()
	if fps <= 0 {
		fps = IdleFPS
	}
	return time.Second / time.Duration(fps)
}
