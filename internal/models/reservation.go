package models

import "regexp"

// ReservationMinutes are the durations a reservation may be placed for.
var ReservationMinutes = []int{5, 10, 15, 20, 25, 30, 45, 60}

// DefaultReservationMinutes is preselected on the confirmation screen.
const DefaultReservationMinutes = 30

// ValidReservationMinutes reports whether minutes is an allowed duration.
func ValidReservationMinutes(minutes int) bool {
	for _, m := range ReservationMinutes {
		if minutes == m {
			return true
		}
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the syntactic check performed before any reservation
// request leaves the client.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// EmailReserveRequest is the body of POST /emailreserve.
type EmailReserveRequest struct {
	PointID int64  `json:"pointid"`
	Email   string `json:"email"`
	Minutes int    `json:"minutes"`
}

// ReservationAck is the backend's acknowledgment of a placed reservation.
type ReservationAck struct {
	PointID            int64   `json:"pointid"`
	Status             Status  `json:"status"`
	ReservationEndTime *string `json:"reservationendtime"`
}
