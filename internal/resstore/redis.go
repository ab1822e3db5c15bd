package resstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "chargemap:reservations:"

// RedisStore keeps reservations in redis so they survive restarts of the
// daemon. Expiry rides on the key TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(pointID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, pointID)
}

// Save records a reservation until its window ends.
func (s *RedisStore) Save(ctx context.Context, res Reservation) error {
	ttl := time.Until(res.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(res.PointID), data, ttl).Err()
}

// List returns the active reservations ordered by point id.
func (s *RedisStore) List(ctx context.Context) ([]Reservation, error) {
	var out []Reservation
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var res Reservation
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			continue
		}
		out = append(out, res)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PointID < out[j].PointID })
	return out, nil
}
