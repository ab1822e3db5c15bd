package models

import (
	"encoding/json"
	"strconv"
)

// Status of a station or point as exposed by the charging network.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusCharging    Status = "charging"
	StatusOffline     Status = "offline"
	StatusReserved    Status = "reserved"
	StatusMalfunction Status = "malfunction"
)

// Station is the map-level view of a charging location.
type Station struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Status          Status  `json:"status"`
	TotalPoints     int     `json:"total_points"`
	AvailablePoints int     `json:"available_points"`
}

// apiStation matches the wire format of GET /stations. Coordinates arrive as
// decimal strings.
type apiStation struct {
	StationID       json.Number `json:"stationid"`
	Name            string      `json:"name"`
	Address         string      `json:"address"`
	Lat             string      `json:"lat"`
	Lon             string      `json:"lon"`
	TotalPoints     int         `json:"total_points"`
	AvailablePoints int         `json:"available_points"`
}

// UnmarshalJSON maps the remote representation onto Station. The derived
// status is a client policy: a station with at least one available point is
// "available", anything else is shown as "charging" on the map, regardless of
// individual point states.
func (s *Station) UnmarshalJSON(data []byte) error {
	var raw apiStation
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	lat, err := strconv.ParseFloat(raw.Lat, 64)
	if err != nil {
		return err
	}
	lng, err := strconv.ParseFloat(raw.Lon, 64)
	if err != nil {
		return err
	}

	status := StatusCharging
	if raw.AvailablePoints > 0 {
		status = StatusAvailable
	}

	*s = Station{
		ID:              raw.StationID.String(),
		Name:            raw.Name,
		Address:         raw.Address,
		Lat:             lat,
		Lng:             lng,
		Status:          status,
		TotalPoints:     raw.TotalPoints,
		AvailablePoints: raw.AvailablePoints,
	}
	return nil
}
