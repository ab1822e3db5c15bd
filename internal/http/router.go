package httpserver

import (
	"net/http"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Routes groups the facade's handlers.
type Routes struct {
	Stations     http.HandlerFunc
	Points       http.HandlerFunc
	GetFilters   http.HandlerFunc
	PutFilters   http.HandlerFunc
	ResetFilters http.HandlerFunc
	FlowState    http.HandlerFunc
	FlowOpen     http.HandlerFunc
	FlowType     http.HandlerFunc
	FlowPoint    http.HandlerFunc
	FlowForm     http.HandlerFunc
	FlowSubmit   http.HandlerFunc
	FlowBack     http.HandlerFunc
	FlowClose    http.HandlerFunc
	EmailReserve http.HandlerFunc
	Reserve      http.HandlerFunc
	Reservations http.HandlerFunc
	Health       http.HandlerFunc
	Push         http.HandlerFunc
}

// NewRouter registers the facade endpoints. limit wraps the reservation
// endpoints with rate limiting; CORS is open since browsers load the UI from
// a different local origin.
func NewRouter(routes Routes, limit func(http.HandlerFunc) http.HandlerFunc) http.Handler {
	if limit == nil {
		limit = func(h http.HandlerFunc) http.HandlerFunc { return h }
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/stations", routes.Stations).Methods(http.MethodGet)
	api.HandleFunc("/stations/{id}/points", routes.Points).Methods(http.MethodGet)

	api.HandleFunc("/filters", routes.GetFilters).Methods(http.MethodGet)
	api.HandleFunc("/filters", routes.PutFilters).Methods(http.MethodPut)
	api.HandleFunc("/filters/reset", routes.ResetFilters).Methods(http.MethodPost)

	api.HandleFunc("/flow", routes.FlowState).Methods(http.MethodGet)
	api.HandleFunc("/flow/open/{stationid}", routes.FlowOpen).Methods(http.MethodPost)
	api.HandleFunc("/flow/type", routes.FlowType).Methods(http.MethodPost)
	api.HandleFunc("/flow/point", routes.FlowPoint).Methods(http.MethodPost)
	api.HandleFunc("/flow/form", routes.FlowForm).Methods(http.MethodPost)
	api.HandleFunc("/flow/submit", limit(routes.FlowSubmit)).Methods(http.MethodPost)
	api.HandleFunc("/flow/back", routes.FlowBack).Methods(http.MethodPost)
	api.HandleFunc("/flow/close", routes.FlowClose).Methods(http.MethodPost)

	api.HandleFunc("/emailreserve", limit(routes.EmailReserve)).Methods(http.MethodPost)
	api.HandleFunc("/reserve/{pointid}", limit(routes.Reserve)).Methods(http.MethodPost)
	api.HandleFunc("/reserve/{pointid}/{minutes}", limit(routes.Reserve)).Methods(http.MethodPost)

	api.HandleFunc("/reservations", routes.Reservations).Methods(http.MethodGet)

	r.HandleFunc("/health", routes.Health).Methods(http.MethodGet)
	if routes.Push != nil {
		r.HandleFunc("/ws", routes.Push)
	}

	return ghandlers.CORS(
		ghandlers.AllowedOrigins([]string{"*"}),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
}
