package handler

import (
	"encoding/json"
	"log"
	"net/http"
)

// Broadcaster pushes change events to websocket subscribers of a
// restaurant. Satisfied by *ws.Hub; NopBroadcaster for tests.
type Broadcaster interface {
	BroadcastEvent(restaurant, eventType string, payload any)
}

// NopBroadcaster drops all events.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastEvent(string, string, any) {}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: encode response: %v", err)
	}
}

// writeDetail writes the error body shape every endpoint uses:
// {"detail": "<human readable>"}.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
