package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes pipeline events (marks, enrollment progress) to
// WebSocket clients as JSON.
type EventsHandler struct {
	events EventSource
}

// NewEventsHandler creates an EventsHandler over events.
func NewEventsHandler(events EventSource) *EventsHandler {
	return &EventsHandler{events: events}
}

// ServeHTTP upgrades the connection and forwards events until either side closes.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Subscribe first so nothing published during the handshake is missed.
	events, cancel := h.events.Subscribe()
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
