package handlers

import (
	"encoding/json"
	"net/http"

	"chargemap/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeReserveError maps a reservation failure onto a facade response.
func writeReserveError(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case apperr.IsConflict(err):
		writeError(w, http.StatusConflict,
			"reservation failed; make sure this email has no active reservation and try again")
	case apperr.IsNetwork(err):
		writeError(w, http.StatusBadGateway, "charging service unreachable")
	default:
		if se, ok := apperr.AsServerError(err); ok && se.Message != "" {
			writeError(w, http.StatusBadGateway, se.Message)
			return
		}
		writeError(w, http.StatusBadGateway, "charging service error")
	}
}
