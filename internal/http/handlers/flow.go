package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chargemap/internal/flow"
	"chargemap/internal/models"
	"chargemap/internal/query"
)

// flowView is the full state of the reservation flow, enough for a stateless
// UI to render the current screen.
type flowView struct {
	State        flow.State           `json:"state"`
	Station      *models.Station      `json:"station,omitempty"`
	PointsLoaded bool                 `json:"points_loaded"`
	Types        []flow.TypeSummary   `json:"types,omitempty"`
	SelectedType models.ConnectorType `json:"selected_type,omitempty"`
	Points       []models.Point       `json:"points,omitempty"`
	Point        *models.Point        `json:"point,omitempty"`
	Email        string               `json:"email"`
	Minutes      int                  `json:"minutes"`
	EmailError   string               `json:"email_error,omitempty"`
	ReserveError string               `json:"reserve_error,omitempty"`
	CanSubmit    bool                 `json:"can_submit"`
	Success      *flow.Summary        `json:"success,omitempty"`
}

func viewOf(c *flow.Controller) flowView {
	emailErr, reserveErr := c.Errors()
	v := flowView{
		State:        c.State(),
		Station:      c.Station(),
		PointsLoaded: c.PointsLoaded(),
		Email:        c.Email(),
		Minutes:      c.Minutes(),
		EmailError:   emailErr,
		ReserveError: reserveErr,
		CanSubmit:    c.CanSubmit(),
	}

	switch v.State {
	case flow.StateChoosingType:
		v.Types = c.TypeSummaries()
	case flow.StateChoosingPoint:
		v.SelectedType = c.SelectedType()
		v.Points = c.PointsOfType()
	case flow.StateConfirming:
		v.SelectedType = c.SelectedType()
		v.Point = c.SelectedPoint()
	case flow.StateSuccess:
		v.Success = c.Success()
	}
	return v
}

// NewFlowStateHandler returns GET /api/flow.
func NewFlowStateHandler(c *flow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.RefreshPoints(r.Context())
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}

// NewFlowOpenHandler returns POST /api/flow/open/{stationid}: binds the flow
// to a station from the unfiltered station list.
func NewFlowOpenHandler(c *flow.Controller, store *query.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stationID := mux.Vars(r)["stationid"]

		stations, err := store.Stations(r.Context(), models.DefaultFilters())
		var station *models.Station
		for i := range stations {
			if stations[i].ID == stationID {
				station = &stations[i]
				break
			}
		}
		if station == nil {
			if err != nil {
				writeError(w, http.StatusBadGateway, "charging service unreachable")
				return
			}
			writeError(w, http.StatusNotFound, "unknown station")
			return
		}

		c.Open(r.Context(), *station)
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}

// NewFlowSelectTypeHandler returns POST /api/flow/type with body {"type": ...}.
func NewFlowSelectTypeHandler(c *flow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Type models.ConnectorType `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}

		c.SelectType(body.Type)
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}

// NewFlowSelectPointHandler returns POST /api/flow/point with body
// {"pointid": ...}. Selecting a point that is not available leaves the flow
// where it is.
func NewFlowSelectPointHandler(c *flow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PointID int64 `json:"pointid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}

		c.SelectPoint(body.PointID)
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}

// NewFlowFormHandler returns POST /api/flow/form updating the confirmation
// form fields.
func NewFlowFormHandler(c *flow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email   *string `json:"email"`
			Minutes *int    `json:"minutes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}

		if body.Email != nil {
			c.SetEmail(*body.Email)
		}
		if body.Minutes != nil {
			c.SetMinutes(*body.Minutes)
		}
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}

// NewFlowSubmitHandler returns POST /api/flow/submit.
func NewFlowSubmitHandler(c *flow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Submit(r.Context())
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}

// NewFlowBackHandler returns POST /api/flow/back.
func NewFlowBackHandler(c *flow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Back()
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}

// NewFlowCloseHandler returns POST /api/flow/close.
func NewFlowCloseHandler(c *flow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.Close()
		writeJSON(w, http.StatusOK, viewOf(c))
	}
}
