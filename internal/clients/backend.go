// Package clients talks to the charging network's public API. All methods
// translate transport and response failures into apperr categories; nothing
// here retries or caches.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chargemap/internal/apperr"
	"chargemap/internal/models"
)

const requestIDHeader = "X-Request-ID"

// Backend is the HTTP client for the remote charging service.
type Backend struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewBackend builds the API client. baseURL points at the service root,
// e.g. http://localhost:3000/api.
func NewBackend(baseURL string, timeout time.Duration, logger *zap.Logger) *Backend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FetchStations queries stations matching the predicate. Unconstrained filter
// dimensions are not sent at all.
func (b *Backend) FetchStations(ctx context.Context, filters models.Filters) ([]models.Station, error) {
	url := fmt.Sprintf("%s/stations", b.baseURL)
	if query := filters.QueryValues().Encode(); query != "" {
		url = fmt.Sprintf("%s?%s", url, query)
	}

	var stations []models.Station
	if err := b.getJSON(ctx, url, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// FetchPoints returns the charging points of one station. Point status is
// authoritative from the server; no client-side mapping is applied.
func (b *Backend) FetchPoints(ctx context.Context, stationID string) ([]models.Point, error) {
	url := fmt.Sprintf("%s/stations/%s/points", b.baseURL, stationID)

	var points []models.Point
	if err := b.getJSON(ctx, url, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// EmailReserve places an email-confirmed reservation. The email is validated
// syntactically before anything is sent. Any non-2xx response is surfaced as
// a conflict: the server does not distinguish "duplicate reservation under
// this email" from other rejection reasons.
func (b *Backend) EmailReserve(ctx context.Context, req models.EmailReserveRequest) (models.ReservationAck, error) {
	var ack models.ReservationAck
	if !models.ValidEmail(req.Email) {
		return ack, apperr.Validation("invalid email address")
	}
	if !models.ValidReservationMinutes(req.Minutes) {
		return ack, apperr.Validation("invalid reservation duration")
	}

	err := b.postJSON(ctx, fmt.Sprintf("%s/emailreserve", b.baseURL), req, &ack)
	if err != nil {
		if se, ok := apperr.AsServerError(err); ok {
			b.logger.Warn("email reservation rejected",
				zap.Int64("point_id", req.PointID),
				zap.Int("status", se.StatusCode),
				zap.String("message", se.Message))
			return ack, apperr.Conflict(err)
		}
		return ack, err
	}
	return ack, nil
}

// Reserve places a direct reservation without email confirmation. When
// minutes <= 0 the server picks its default duration.
func (b *Backend) Reserve(ctx context.Context, pointID int64, minutes int) (models.ReservationAck, error) {
	url := fmt.Sprintf("%s/reserve/%d", b.baseURL, pointID)
	if minutes > 0 {
		url = fmt.Sprintf("%s/%d", url, minutes)
	}

	var ack models.ReservationAck
	if err := b.postJSON(ctx, url, nil, &ack); err != nil {
		return ack, err
	}
	return ack, nil
}

func (b *Backend) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return b.do(req, out)
}

func (b *Backend) postJSON(ctx context.Context, url string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return b.do(req, out)
}

func (b *Backend) do(req *http.Request, out interface{}) error {
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Warn("backend request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return apperr.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.Server(resp.StatusCode, decodeMessage(resp))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeMessage pulls the optional {"message": ...} field out of an error
// response body.
func decodeMessage(resp *http.Response) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
