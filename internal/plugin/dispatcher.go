package plugin

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// maxConcurrent bounds how many plugin processes run at once.
const maxConcurrent = 4

// Binding says which plugin action handles an event.
type Binding struct {
	Plugin string
	Action string
	Config json.RawMessage
}

// BindingSource supplies explicit bindings for an event, typically from the database.
type BindingSource interface {
	Bindings(event string) ([]Binding, error)
}

// Dispatcher fans events out to plugins in the background. Plugin failures
// are logged and never reach the caller.
type Dispatcher struct {
	mgr    *Manager
	exec   *Executor
	source BindingSource

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher. source may be nil, in which case only
// manifest subscriptions are used.
func NewDispatcher(mgr *Manager, exec *Executor, source BindingSource) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		mgr:    mgr,
		exec:   exec,
		source: source,
		sem:    make(chan struct{}, maxConcurrent),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Resolve returns the bindings for event: explicit bindings first, then
// manifest subscriptions not already covered.
func (d *Dispatcher) Resolve(event string) []Binding {
	var out []Binding
	seen := make(map[string]bool)

	if d.source != nil {
		explicit, err := d.source.Bindings(event)
		if err != nil {
			log.Printf("Error loading hooks for %s: %v", event, err)
		}
		for _, b := range explicit {
			out = append(out, b)
			seen[b.Plugin] = true
		}
	}

	for _, p := range d.mgr.Subscribers(event) {
		if seen[p.Manifest.Name] || len(p.Manifest.Actions) == 0 {
			continue
		}
		out = append(out, Binding{Plugin: p.Manifest.Name, Action: p.Manifest.Actions[0]})
	}
	return out
}

// Dispatch runs every plugin bound to event with payload as the request body.
// It returns immediately.
func (d *Dispatcher) Dispatch(event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error encoding %s payload: %v", event, err)
		return
	}

	for _, b := range d.Resolve(event) {
		p, err := d.mgr.Get(b.Plugin)
		if err != nil {
			log.Printf("Hook for %s skipped: %s: %v", event, b.Plugin, err)
			continue
		}

		req := &Request{
			Action:  b.Action,
			Event:   event,
			Config:  b.Config,
			Payload: body,
		}

		d.wg.Add(1)
		go d.run(p, req)
	}
}

func (d *Dispatcher) run(p *Plugin, req *Request) {
	defer d.wg.Done()

	select {
	case d.sem <- struct{}{}:
	case <-d.ctx.Done():
		return
	}
	defer func() { <-d.sem }()

	resp, err := d.exec.Execute(d.ctx, p, req)
	switch {
	case err != nil:
		log.Printf("Plugin %s/%s failed: %v", p.Manifest.Name, req.Action, err)
	case !resp.Success:
		log.Printf("Plugin %s/%s reported error: %s", p.Manifest.Name, req.Action, resp.Error)
	default:
		log.Printf("Plugin %s/%s handled %s", p.Manifest.Name, req.Action, req.Event)
	}
}

// Wait blocks until every dispatched plugin has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels running plugins and waits for them to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
