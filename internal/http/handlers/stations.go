package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chargemap/internal/filter"
	"chargemap/internal/query"
)

// NewStationsHandler returns GET /api/stations. Stations are read through the
// synchronizer under the currently active filter predicate: a cached list is
// served immediately and refreshed in the background when stale. A fetch
// failure with no cached value yields an empty list with the error flag set,
// never a dropped last-good value.
func NewStationsHandler(store *query.Store, filters *filter.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stations, err := store.Stations(r.Context(), filters.Current())
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"stations": stations,
			"error":    err != nil,
		})
	}
}

// NewPointsHandler returns GET /api/stations/{id}/points, same read contract
// as the station list.
func NewPointsHandler(store *query.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stationID := mux.Vars(r)["id"]
		if stationID == "" {
			writeError(w, http.StatusBadRequest, "missing station id")
			return
		}

		points, err := store.Points(r.Context(), stationID)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"points": points,
			"error":  err != nil,
		})
	}
}
