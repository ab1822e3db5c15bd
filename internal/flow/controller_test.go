package flow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chargemap/internal/apperr"
	"chargemap/internal/models"
)

type fakeReserver struct {
	hits int32
	err  error
	ack  models.ReservationAck
}

func (f *fakeReserver) EmailReserve(ctx context.Context, req models.EmailReserveRequest) (models.ReservationAck, error) {
	atomic.AddInt32(&f.hits, 1)
	if f.err != nil {
		return models.ReservationAck{}, f.err
	}
	ack := f.ack
	if ack.PointID == 0 {
		ack.PointID = req.PointID
	}
	return ack, nil
}

type fakePoints struct {
	points []models.Point
	err    error
}

func (f *fakePoints) Points(ctx context.Context, stationID string) ([]models.Point, error) {
	return f.points, f.err
}

func testStation() models.Station {
	return models.Station{ID: "17", Name: "Marina Flisvos", Address: "Poseidonos 12", TotalPoints: 4, AvailablePoints: 2}
}

func testPoints() []models.Point {
	return []models.Point{
		{PointID: 1, ConnectorType: models.ConnectorCCS2, CapKW: 150, Status: models.StatusAvailable, KWhPrice: 0.40, FastCharger: true},
		{PointID: 2, ConnectorType: models.ConnectorCCS2, CapKW: 50, Status: models.StatusCharging, KWhPrice: 0.30},
		{PointID: 3, ConnectorType: models.ConnectorType2, CapKW: 22, Status: models.StatusAvailable, KWhPrice: 0.20},
	}
}

func newTestController(r Reserver, onReserved func(Summary)) *Controller {
	return NewController(r, &fakePoints{points: testPoints()}, onReserved, zap.NewNop())
}

func TestHappyPathToSuccess(t *testing.T) {
	reserver := &fakeReserver{ack: models.ReservationAck{Status: models.StatusReserved}}
	var reserved []Summary
	c := newTestController(reserver, func(s Summary) { reserved = append(reserved, s) })

	c.Open(context.Background(), testStation())
	require.True(t, c.PointsLoaded())
	assert.Equal(t, StateChoosingType, c.State())

	types := c.TypeSummaries()
	require.Len(t, types, 2)
	assert.Equal(t, models.ConnectorCCS2, types[0].Type)
	assert.Equal(t, 1, types[0].Available)
	assert.Equal(t, 2, types[0].Total)
	assert.True(t, types[0].HasFast)
	assert.InDelta(t, 0.35, types[0].AvgPrice, 1e-9)

	require.True(t, c.SelectType(models.ConnectorCCS2))
	assert.Equal(t, StateChoosingPoint, c.State())
	assert.Len(t, c.PointsOfType(), 2)

	require.True(t, c.SelectPoint(1))
	assert.Equal(t, StateConfirming, c.State())
	assert.Equal(t, models.DefaultReservationMinutes, c.Minutes())

	assert.False(t, c.CanSubmit(), "empty email must not be submittable")
	c.SetEmail("driver@example.com")
	require.True(t, c.SetMinutes(15))
	require.True(t, c.CanSubmit())

	require.True(t, c.Submit(context.Background()))
	assert.Equal(t, StateSuccess, c.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&reserver.hits))

	s := c.Success()
	require.NotNil(t, s)
	assert.Equal(t, "driver@example.com", s.Email)
	assert.Equal(t, int64(1), s.PointID)
	assert.Equal(t, "Poseidonos 12", s.StationAddress)
	assert.Equal(t, 15, s.Minutes)
	require.Len(t, reserved, 1)
	assert.Equal(t, s.PointID, reserved[0].PointID)

	// Success clears the form but keeps the reserved point for display.
	assert.Empty(t, c.Email())
	assert.Empty(t, string(c.SelectedType()))
	require.NotNil(t, c.SelectedPoint())
}

func TestInvalidEmailNeverReachesNetwork(t *testing.T) {
	reserver := &fakeReserver{}
	c := newTestController(reserver, nil)

	c.Open(context.Background(), testStation())
	require.True(t, c.SelectType(models.ConnectorCCS2))
	require.True(t, c.SelectPoint(1))

	assert.False(t, c.Submit(context.Background()))
	emailErr, _ := c.Errors()
	assert.Equal(t, msgEmailRequired, emailErr)

	c.SetEmail("not-an-email")
	assert.False(t, c.Submit(context.Background()))
	emailErr, _ = c.Errors()
	assert.Equal(t, msgEmailInvalid, emailErr)

	assert.Zero(t, atomic.LoadInt32(&reserver.hits))
	assert.Equal(t, StateConfirming, c.State())
}

func TestEmailErrorRevalidatesWhileTyping(t *testing.T) {
	c := newTestController(&fakeReserver{}, nil)
	c.Open(context.Background(), testStation())
	require.True(t, c.SelectType(models.ConnectorCCS2))
	require.True(t, c.SelectPoint(1))

	c.Submit(context.Background()) // empty email, raises the error
	c.SetEmail("driver@")
	emailErr, _ := c.Errors()
	assert.Equal(t, msgEmailInvalid, emailErr)

	c.SetEmail("driver@example.com")
	emailErr, _ = c.Errors()
	assert.Empty(t, emailErr)
}

func TestUnavailablePointClickIsNoOp(t *testing.T) {
	c := newTestController(&fakeReserver{}, nil)
	c.Open(context.Background(), testStation())
	require.True(t, c.SelectType(models.ConnectorCCS2))

	assert.False(t, c.SelectPoint(2), "charging point must not be selectable")
	assert.Equal(t, StateChoosingPoint, c.State())
	assert.Nil(t, c.SelectedPoint())

	assert.False(t, c.SelectPoint(3), "point of another type must not be selectable")
	assert.False(t, c.SelectPoint(99), "unknown point must not be selectable")
}

func TestSelectTypeRefusesAbsentType(t *testing.T) {
	c := newTestController(&fakeReserver{}, nil)
	c.Open(context.Background(), testStation())

	assert.False(t, c.SelectType(models.ConnectorCHAdeMO))
	assert.Equal(t, StateChoosingType, c.State())
}

func TestRejectedReservationKeepsFormState(t *testing.T) {
	reserver := &fakeReserver{err: apperr.Conflict(errors.New("rejected"))}
	c := newTestController(reserver, nil)

	c.Open(context.Background(), testStation())
	require.True(t, c.SelectType(models.ConnectorCCS2))
	require.True(t, c.SelectPoint(1))
	c.SetEmail("driver@example.com")

	assert.False(t, c.Submit(context.Background()))
	assert.Equal(t, StateConfirming, c.State())
	assert.Equal(t, "driver@example.com", c.Email(), "entered email survives a rejection")

	_, reserveErr := c.Errors()
	assert.Equal(t, msgReserveFailed, reserveErr)

	// Typing clears the failure.
	c.SetEmail("driver2@example.com")
	_, reserveErr = c.Errors()
	assert.Empty(t, reserveErr)
}

func TestSetMinutesRejectsValuesOutsideSet(t *testing.T) {
	c := newTestController(&fakeReserver{}, nil)
	assert.False(t, c.SetMinutes(7))
	assert.Equal(t, models.DefaultReservationMinutes, c.Minutes())
	assert.True(t, c.SetMinutes(45))
	assert.Equal(t, 45, c.Minutes())
}

func TestBackNavigation(t *testing.T) {
	c := newTestController(&fakeReserver{}, nil)
	c.Open(context.Background(), testStation())
	require.True(t, c.SelectType(models.ConnectorCCS2))
	require.True(t, c.SelectPoint(1))
	c.SetEmail("driver@example.com")
	c.SetMinutes(60)

	c.Back()
	assert.Equal(t, StateChoosingPoint, c.State())
	assert.Nil(t, c.SelectedPoint())
	assert.Empty(t, c.Email())
	assert.Equal(t, models.DefaultReservationMinutes, c.Minutes())
	assert.Equal(t, models.ConnectorCCS2, c.SelectedType(), "type choice survives one step back")

	c.Back()
	assert.Equal(t, StateChoosingType, c.State())
	assert.Empty(t, string(c.SelectedType()))

	c.Back() // already at the first step
	assert.Equal(t, StateChoosingType, c.State())
}

func TestCloseResetsEverything(t *testing.T) {
	reserver := &fakeReserver{ack: models.ReservationAck{Status: models.StatusReserved}}
	c := newTestController(reserver, nil)

	c.Open(context.Background(), testStation())
	require.True(t, c.SelectType(models.ConnectorCCS2))
	require.True(t, c.SelectPoint(1))
	c.SetEmail("driver@example.com")
	require.True(t, c.Submit(context.Background()))
	require.Equal(t, StateSuccess, c.State())

	c.Close()
	assert.Equal(t, StateChoosingType, c.State())
	assert.Nil(t, c.Station())
	assert.Nil(t, c.SelectedPoint())
	assert.Nil(t, c.Success())
	assert.Empty(t, c.Email())
	assert.False(t, c.PointsLoaded())
}

func TestOpenWithFailingSourceStaysLoading(t *testing.T) {
	c := NewController(&fakeReserver{}, &fakePoints{err: errors.New("backend down")}, nil, zap.NewNop())
	c.Open(context.Background(), testStation())

	assert.False(t, c.PointsLoaded())
	assert.Empty(t, c.TypeSummaries())
	assert.False(t, c.SelectType(models.ConnectorCCS2))
}
