package handlers

import (
	"encoding/json"
	"net/http"

	"chargemap/internal/filter"
	"chargemap/internal/models"
)

// NewGetFiltersHandler returns GET /api/filters.
func NewGetFiltersHandler(filters *filter.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, filters.Current())
	}
}

// NewPutFiltersHandler returns PUT /api/filters. The body replaces the whole
// predicate; missing fields mean "no constraint", out-of-range values are
// clamped at this boundary.
func NewPutFiltersHandler(filters *filter.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := models.DefaultFilters()
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			writeError(w, http.StatusBadRequest, "invalid filter payload")
			return
		}

		filters.Update(next)
		writeJSON(w, http.StatusOK, filters.Current())
	}
}

// NewResetFiltersHandler returns POST /api/filters/reset.
func NewResetFiltersHandler(filters *filter.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters.Reset()
		writeJSON(w, http.StatusOK, filters.Current())
	}
}
