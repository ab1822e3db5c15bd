package handlers

import (
	"net/http"

	"chargemap/internal/resstore"
)

// NewReservationsHandler returns GET /api/reservations: the reservations this
// client has placed that are still inside their window.
func NewReservationsHandler(store resstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reservations, err := store.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list reservations")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"reservations": reservations,
		})
	}
}
