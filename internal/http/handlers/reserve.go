package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"chargemap/internal/models"
)

// Reserver places reservations against the charging service.
type Reserver interface {
	EmailReserve(ctx context.Context, req models.EmailReserveRequest) (models.ReservationAck, error)
	Reserve(ctx context.Context, pointID int64, minutes int) (models.ReservationAck, error)
}

// Reserved is invoked after every successful reservation placed through the
// facade. The app hangs cache invalidation, the push relay and the local
// reservation record off it, keeping refresh an explicit consequence of the
// mutation.
type Reserved func(ack models.ReservationAck, email string, minutes int)

// NewEmailReserveHandler returns POST /api/emailreserve.
func NewEmailReserveHandler(reserver Reserver, reserved Reserved) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.EmailReserveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}

		ack, err := reserver.EmailReserve(r.Context(), req)
		if err != nil {
			writeReserveError(w, err)
			return
		}

		if reserved != nil {
			reserved(ack, req.Email, req.Minutes)
		}
		writeJSON(w, http.StatusOK, ack)
	}
}

// NewReserveHandler returns POST /api/reserve/{pointid} and
// /api/reserve/{pointid}/{minutes}. Without minutes the server picks its
// default duration.
func NewReserveHandler(reserver Reserver, reserved Reserved) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		pointID, err := strconv.ParseInt(vars["pointid"], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid point id")
			return
		}

		minutes := 0
		if raw, ok := vars["minutes"]; ok && raw != "" {
			minutes, err = strconv.Atoi(raw)
			if err != nil || !models.ValidReservationMinutes(minutes) {
				writeError(w, http.StatusBadRequest, "invalid reservation duration")
				return
			}
		}

		ack, err := reserver.Reserve(r.Context(), pointID, minutes)
		if err != nil {
			writeReserveError(w, err)
			return
		}

		if reserved != nil {
			reserved(ack, "", minutes)
		}
		writeJSON(w, http.StatusOK, ack)
	}
}
