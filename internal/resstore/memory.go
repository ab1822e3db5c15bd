package resstore

import (
	"context"
	"sort"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps reservations in process memory with per-record TTL.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore builds the in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

// Save records a reservation until its window ends.
func (s *MemoryStore) Save(_ context.Context, res Reservation) error {
	ttl := time.Until(res.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(strconv.FormatInt(res.PointID, 10), res, ttl)
	return nil
}

// List returns the active reservations ordered by point id.
func (s *MemoryStore) List(_ context.Context) ([]Reservation, error) {
	items := s.cache.Items()
	out := make([]Reservation, 0, len(items))
	for _, item := range items {
		if res, ok := item.Object.(Reservation); ok {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PointID < out[j].PointID })
	return out, nil
}
