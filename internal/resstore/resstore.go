// Package resstore tracks reservations this client has placed, expiring each
// record when its reservation window ends.
package resstore

import (
	"context"
	"time"

	"chargemap/internal/models"
)

// Reservation is a locally recorded booking.
type Reservation struct {
	PointID   int64         `json:"point_id"`
	Email     string        `json:"email,omitempty"`
	Status    models.Status `json:"status"`
	EndTime   string        `json:"end_time,omitempty"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Store persists active reservations until they expire.
type Store interface {
	Save(ctx context.Context, res Reservation) error
	List(ctx context.Context) ([]Reservation, error)
}

// FromAck builds a record from a reservation acknowledgment. The backend's
// end-time string is parsed best-effort; when it is absent or unparseable the
// requested duration bounds the record's lifetime instead.
func FromAck(ack models.ReservationAck, email string, minutes int) Reservation {
	res := Reservation{
		PointID: ack.PointID,
		Email:   email,
		Status:  ack.Status,
	}
	if ack.ReservationEndTime != nil {
		res.EndTime = *ack.ReservationEndTime
		if t, err := time.Parse(time.RFC3339, res.EndTime); err == nil {
			res.ExpiresAt = t
		}
	}
	if res.ExpiresAt.IsZero() {
		if minutes <= 0 {
			minutes = models.DefaultReservationMinutes
		}
		res.ExpiresAt = time.Now().Add(time.Duration(minutes) * time.Minute)
	}
	return res
}
