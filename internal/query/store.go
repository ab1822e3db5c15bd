package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chargemap/internal/models"
)

const (
	stationsNamespace = "stations"
	pointsNamespace   = "points/"
)

// StationSource is the remote side of the synchronizer.
type StationSource interface {
	FetchStations(ctx context.Context, filters models.Filters) ([]models.Station, error)
	FetchPoints(ctx context.Context, stationID string) ([]models.Point, error)
}

// Store binds the cache to the backend with typed accessors and the two key
// namespaces: one entry per distinct filter predicate, one per station's
// point list.
type Store struct {
	cache       *Cache
	source      StationSource
	stationsTTL time.Duration
	pointsTTL   time.Duration
}

// StoreConfig carries the per-namespace staleness thresholds.
type StoreConfig struct {
	StationsTTL time.Duration
	PointsTTL   time.Duration
}

// NewStore builds the synchronizer.
func NewStore(source StationSource, cfg StoreConfig, logger *zap.Logger) *Store {
	if cfg.StationsTTL <= 0 {
		cfg.StationsTTL = 30 * time.Second
	}
	if cfg.PointsTTL <= 0 {
		cfg.PointsTTL = 10 * time.Second
	}
	return &Store{
		cache:       NewCache(logger),
		source:      source,
		stationsTTL: cfg.StationsTTL,
		pointsTTL:   cfg.PointsTTL,
	}
}

// Close releases cache resources.
func (s *Store) Close() {
	s.cache.Close()
}

// Stations returns the stations matching the predicate. A cached value is
// served immediately even when stale (a refresh then runs in the background).
// The returned error is the most recent fetch failure; when it is non-nil and
// the slice is empty, no good value exists yet.
func (s *Store) Stations(ctx context.Context, filters models.Filters) ([]models.Station, error) {
	filters = filters.Clamped()
	res := s.cache.Get(ctx, StationsKey(filters), s.stationsTTL, s.stationsFetch(filters))
	if res.Value == nil {
		return []models.Station{}, res.Err
	}
	return res.Value.([]models.Station), res.Err
}

// Points returns the charging points of one station, same contract as
// Stations. Point lists are only ever fetched for stations somebody opened.
func (s *Store) Points(ctx context.Context, stationID string) ([]models.Point, error) {
	res := s.cache.Get(ctx, PointsKey(stationID), s.pointsTTL, s.pointsFetch(stationID))
	if res.Value == nil {
		return []models.Point{}, res.Err
	}
	return res.Value.([]models.Point), res.Err
}

// SubscribeStations registers interest in a predicate's station list.
func (s *Store) SubscribeStations(filters models.Filters) (<-chan Result, func()) {
	filters = filters.Clamped()
	return s.cache.Subscribe(StationsKey(filters), s.stationsTTL, s.stationsFetch(filters))
}

// SubscribePoints registers interest in one station's point list.
func (s *Store) SubscribePoints(stationID string) (<-chan Result, func()) {
	return s.cache.Subscribe(PointsKey(stationID), s.pointsTTL, s.pointsFetch(stationID))
}

// InvalidateAll marks every station-list and point-list entry stale. Push
// signals carry no reliable scoping, so invalidation is deliberately
// unconditional.
func (s *Store) InvalidateAll() {
	s.cache.InvalidatePrefix(stationsNamespace)
	s.cache.InvalidatePrefix(pointsNamespace)
}

// RefreshStale eagerly re-fetches subscribed entries past their staleness
// threshold.
func (s *Store) RefreshStale() {
	s.cache.RefreshStale()
}

func (s *Store) stationsFetch(filters models.Filters) FetchFunc {
	return func(ctx context.Context) (interface{}, error) {
		stations, err := s.source.FetchStations(ctx, filters)
		if err != nil {
			return nil, err
		}
		return stations, nil
	}
}

func (s *Store) pointsFetch(stationID string) FetchFunc {
	return func(ctx context.Context) (interface{}, error) {
		points, err := s.source.FetchPoints(ctx, stationID)
		if err != nil {
			return nil, err
		}
		return points, nil
	}
}

// StationsKey is the cache identity of a filter predicate. Predicates with
// equal field values map to the same entry.
func StationsKey(filters models.Filters) string {
	query := filters.CacheKey()
	if query == "" {
		return stationsNamespace
	}
	return stationsNamespace + "?" + query
}

// PointsKey is the cache identity of one station's point list.
func PointsKey(stationID string) string {
	return pointsNamespace + stationID
}
