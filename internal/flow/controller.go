// Package flow drives a reservation from connector-type choice to confirmed
// booking as an explicit state machine, independent of any rendering layer.
package flow

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"chargemap/internal/apperr"
	"chargemap/internal/models"
)

// State of the reservation flow.
type State string

const (
	StateChoosingType  State = "choosing-type"
	StateChoosingPoint State = "choosing-point"
	StateConfirming    State = "confirming"
	StateSuccess       State = "success"
)

// User-facing messages. The conflict hint is deliberately uniform: the server
// does not say whether the rejection was a duplicate email reservation or a
// point that just became unavailable.
const (
	msgEmailRequired = "email is required"
	msgEmailInvalid  = "invalid email address"
	msgReserveFailed = "reservation failed; make sure this email has no active reservation and try again"
)

// Reserver places the reservation.
type Reserver interface {
	EmailReserve(ctx context.Context, req models.EmailReserveRequest) (models.ReservationAck, error)
}

// PointsSource supplies the selected station's points.
type PointsSource interface {
	Points(ctx context.Context, stationID string) ([]models.Point, error)
}

// TypeSummary annotates one connector type present at the station.
type TypeSummary struct {
	Type      models.ConnectorType `json:"type"`
	Available int                  `json:"available"`
	Total     int                  `json:"total"`
	AvgPrice  float64              `json:"avg_price"`
	HasFast   bool                 `json:"has_fast"`
}

// Summary holds the confirmation details shown after a successful booking.
type Summary struct {
	Email          string                `json:"email"`
	PointID        int64                 `json:"point_id"`
	StationAddress string                `json:"station_address"`
	Minutes        int                   `json:"minutes"`
	Ack            models.ReservationAck `json:"ack"`
}

// Controller is the reservation flow state machine. All methods are safe for
// concurrent use; the network call in Submit runs outside the lock so other
// interactions stay responsive.
type Controller struct {
	reserver   Reserver
	source     PointsSource
	onReserved func(Summary)
	logger     *zap.Logger

	mu            sync.Mutex
	state         State
	station       *models.Station
	points        []models.Point
	pointsLoaded  bool
	selectedType  models.ConnectorType
	selectedPoint *models.Point
	email         string
	minutes       int
	emailError    string
	reserveError  string
	submitting    bool
	success       *Summary
}

// NewController builds the flow. onReserved runs after every successful
// reservation; the caller uses it to invalidate the query caches, so the
// refresh is an explicit consequence of the mutation rather than a hidden
// side channel.
func NewController(reserver Reserver, source PointsSource, onReserved func(Summary), logger *zap.Logger) *Controller {
	return &Controller{
		reserver:   reserver,
		source:     source,
		onReserved: onReserved,
		logger:     logger,
		state:      StateChoosingType,
		minutes:    models.DefaultReservationMinutes,
	}
}

// Open resets the flow and binds it to a station, loading its points. A load
// failure is not fatal: the type list simply stays in its loading state and a
// later RefreshPoints can fill it.
func (c *Controller) Open(ctx context.Context, station models.Station) {
	c.mu.Lock()
	c.resetLocked()
	st := station
	c.station = &st
	c.mu.Unlock()

	c.RefreshPoints(ctx)
}

// RefreshPoints re-reads the station's point list from the synchronizer.
func (c *Controller) RefreshPoints(ctx context.Context) {
	c.mu.Lock()
	if c.station == nil {
		c.mu.Unlock()
		return
	}
	stationID := c.station.ID
	c.mu.Unlock()

	points, err := c.source.Points(ctx, stationID)
	if err != nil && len(points) == 0 {
		c.logger.Warn("points unavailable for station", zap.String("station_id", stationID), zap.Error(err))
		return
	}

	c.mu.Lock()
	if c.station != nil && c.station.ID == stationID {
		c.points = points
		c.pointsLoaded = true
	}
	c.mu.Unlock()
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Station returns the bound station, if any.
func (c *Controller) Station() *models.Station {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.station == nil {
		return nil
	}
	st := *c.station
	return &st
}

// PointsLoaded reports whether the station's points have arrived. Until then
// the type list is empty and consumers show a loading affordance.
func (c *Controller) PointsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pointsLoaded
}

// TypeSummaries lists the connector types present among the station's points,
// in first-seen order, each with availability count, average price and a
// fast-charging indicator. Types with zero points never appear, so an
// unselectable option is never offered.
func (c *Controller) TypeSummaries() []TypeSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	var order []models.ConnectorType
	byType := make(map[models.ConnectorType][]models.Point)
	for _, p := range c.points {
		if _, seen := byType[p.ConnectorType]; !seen {
			order = append(order, p.ConnectorType)
		}
		byType[p.ConnectorType] = append(byType[p.ConnectorType], p)
	}

	summaries := make([]TypeSummary, 0, len(order))
	for _, t := range order {
		points := byType[t]
		s := TypeSummary{Type: t, Total: len(points)}
		var priceSum float64
		for _, p := range points {
			if p.Available() {
				s.Available++
			}
			if p.FastCharger {
				s.HasFast = true
			}
			priceSum += p.KWhPrice
		}
		s.AvgPrice = priceSum / float64(len(points))
		summaries = append(summaries, s)
	}
	return summaries
}

// SelectType moves to the point list for one connector type. Types without
// points are refused.
func (c *Controller) SelectType(t models.ConnectorType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateChoosingType {
		return false
	}
	found := false
	for _, p := range c.points {
		if p.ConnectorType == t {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	c.selectedType = t
	c.state = StateChoosingPoint
	return true
}

// SelectedType returns the chosen connector type.
func (c *Controller) SelectedType() models.ConnectorType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedType
}

// PointsOfType lists the points of the chosen connector type.
func (c *Controller) PointsOfType() []models.Point {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.Point
	for _, p := range c.points {
		if p.ConnectorType == c.selectedType {
			out = append(out, p)
		}
	}
	return out
}

// SelectPoint moves to the confirmation screen for an available point.
// Clicking a point in any other status is a no-op, not an error.
func (c *Controller) SelectPoint(pointID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateChoosingPoint {
		return false
	}
	for _, p := range c.points {
		if p.PointID == pointID && p.ConnectorType == c.selectedType {
			if !p.Available() {
				return false
			}
			point := p
			c.selectedPoint = &point
			c.state = StateConfirming
			c.minutes = models.DefaultReservationMinutes
			return true
		}
	}
	return false
}

// SelectedPoint returns the point being confirmed.
func (c *Controller) SelectedPoint() *models.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedPoint == nil {
		return nil
	}
	p := *c.selectedPoint
	return &p
}

// SetEmail stores the confirmation email. Typing clears a previous submit
// failure, and an already-shown email error revalidates as the user types.
func (c *Controller) SetEmail(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.email = email
	c.reserveError = ""
	if c.emailError != "" {
		c.emailError = validateEmail(email)
	}
}

// Email returns the entered confirmation email.
func (c *Controller) Email() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}

// SetMinutes selects the reservation duration; values outside the allowed
// set are ignored.
func (c *Controller) SetMinutes(minutes int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !models.ValidReservationMinutes(minutes) {
		return false
	}
	c.minutes = minutes
	return true
}

// Minutes returns the selected duration.
func (c *Controller) Minutes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minutes
}

// Errors returns the current email validation error and submit failure
// message, empty when none.
func (c *Controller) Errors() (emailError, reserveError string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emailError, c.reserveError
}

// CanSubmit reports whether the confirmation form is submittable: an email
// has been entered and no submission is in flight.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConfirming && c.email != "" && !c.submitting
}

// Submit places the reservation. Validation failures never reach the network.
// On success the flow moves to Success; on failure it stays on the
// confirmation screen with a recoverable error and the entered email intact.
func (c *Controller) Submit(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != StateConfirming || c.selectedPoint == nil || c.submitting {
		c.mu.Unlock()
		return false
	}
	if msg := validateEmail(c.email); msg != "" {
		c.emailError = msg
		c.mu.Unlock()
		return false
	}

	req := models.EmailReserveRequest{
		PointID: c.selectedPoint.PointID,
		Email:   c.email,
		Minutes: c.minutes,
	}
	c.submitting = true
	c.emailError = ""
	c.reserveError = ""
	c.mu.Unlock()

	ack, err := c.reserver.EmailReserve(ctx, req)

	c.mu.Lock()
	c.submitting = false
	if c.state != StateConfirming || c.selectedPoint == nil || c.selectedPoint.PointID != req.PointID {
		// The flow was navigated away while the request was in flight.
		c.mu.Unlock()
		return false
	}

	if err != nil {
		if apperr.IsValidation(err) {
			c.emailError = msgEmailInvalid
		} else {
			c.reserveError = msgReserveFailed
		}
		c.mu.Unlock()
		c.logger.Warn("reservation submit failed", zap.Int64("point_id", req.PointID), zap.Error(err))
		return false
	}

	address := ""
	if c.station != nil {
		address = c.station.Address
	}
	c.success = &Summary{
		Email:          req.Email,
		PointID:        req.PointID,
		StationAddress: address,
		Minutes:        req.Minutes,
		Ack:            ack,
	}
	c.state = StateSuccess
	c.selectedType = ""
	c.email = ""
	summary := *c.success
	onReserved := c.onReserved
	c.mu.Unlock()

	c.logger.Info("reservation confirmed",
		zap.Int64("point_id", ack.PointID), zap.String("status", string(ack.Status)))
	if onReserved != nil {
		onReserved(summary)
	}
	return true
}

// Success returns the confirmation summary while in the Success state.
func (c *Controller) Success() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.success == nil {
		return nil
	}
	s := *c.success
	return &s
}

// Back navigates one step: confirmation back to the point list (clearing the
// selected point and all form state), the point list back to the type list
// (clearing the selected type).
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConfirming:
		c.selectedPoint = nil
		c.email = ""
		c.emailError = ""
		c.reserveError = ""
		c.minutes = models.DefaultReservationMinutes
		c.state = StateChoosingPoint
	case StateChoosingPoint:
		c.selectedType = ""
		c.state = StateChoosingType
	}
}

// Close fully resets the flow: selected type, selected point, email, errors
// and any success summary are all cleared, from every state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.state = StateChoosingType
	c.station = nil
	c.points = nil
	c.pointsLoaded = false
	c.selectedType = ""
	c.selectedPoint = nil
	c.email = ""
	c.minutes = models.DefaultReservationMinutes
	c.emailError = ""
	c.reserveError = ""
	c.submitting = false
	c.success = nil
}

func validateEmail(email string) string {
	if email == "" {
		return msgEmailRequired
	}
	if !models.ValidEmail(email) {
		return msgEmailInvalid
	}
	return ""
}
