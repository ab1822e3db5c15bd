package handlers

import "net/http"

// NewHealthHandler returns GET /health. liveState reports the backend push
// channel's connection state.
func NewHealthHandler(liveState func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"status": "ok"}
		if liveState != nil {
			payload["live_channel"] = liveState()
		}
		writeJSON(w, http.StatusOK, payload)
	}
}
