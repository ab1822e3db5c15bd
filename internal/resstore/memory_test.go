package resstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargemap/internal/models"
)

func TestFromAckUsesServerEndTime(t *testing.T) {
	end := "2026-08-31T12:30:00Z"
	ack := models.ReservationAck{PointID: 5, Status: models.StatusReserved, ReservationEndTime: &end}

	res := FromAck(ack, "driver@example.com", 30)
	assert.Equal(t, end, res.EndTime)
	want, _ := time.Parse(time.RFC3339, end)
	assert.True(t, res.ExpiresAt.Equal(want))
}

func TestFromAckFallsBackToRequestedDuration(t *testing.T) {
	before := time.Now()

	tests := []struct {
		name    string
		endTime *string
		minutes int
		want    time.Duration
	}{
		{"no end time", nil, 15, 15 * time.Minute},
		{"unparseable end time", strPtr("next tuesday"), 20, 20 * time.Minute},
		{"zero minutes uses default", nil, 0, time.Duration(models.DefaultReservationMinutes) * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := models.ReservationAck{PointID: 5, Status: models.StatusReserved, ReservationEndTime: tt.endTime}
			res := FromAck(ack, "driver@example.com", tt.minutes)

			assert.False(t, res.ExpiresAt.Before(before.Add(tt.want)))
			assert.False(t, res.ExpiresAt.After(time.Now().Add(tt.want)))
		})
	}
}

func TestMemoryStoreSaveAndList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Reservation{PointID: 9, Email: "b@example.com", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.Save(ctx, Reservation{PointID: 3, Email: "a@example.com", ExpiresAt: time.Now().Add(time.Hour)}))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].PointID)
	assert.Equal(t, int64(9), got[1].PointID)
}

func TestMemoryStoreSkipsAlreadyExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Reservation{PointID: 1, ExpiresAt: time.Now().Add(-time.Minute)}))

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreSaveReplacesExisting(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Reservation{PointID: 1, Email: "old@example.com", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.Save(ctx, Reservation{PointID: 1, Email: "new@example.com", ExpiresAt: time.Now().Add(time.Hour)}))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new@example.com", got[0].Email)
}

func strPtr(s string) *string { return &s }
