package redis

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLock      = "LOCK"
	idemResPrefix = "RES:"
)

// StoredResponse is a finished response kept for replay.
type StoredResponse struct {
	Status int
	Body   []byte
}

// IdempotencyStore keeps the response of a completed request under its
// idempotency key. A key holds either a lock marker while the first request
// is in flight or "RES:<status>:<body>" once it finished.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, idemLock, lockTTL).Result()
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, status int, body []byte) error {
	val := idemResPrefix + strconv.Itoa(status) + ":" + string(body)
	return s.rdb.Set(ctx, key, val, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (StoredResponse, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}

	rest, ok := strings.CutPrefix(v, idemResPrefix)
	if !ok {
		return StoredResponse{}, false, nil
	}

	code, body, ok := strings.Cut(rest, ":")
	if !ok {
		return StoredResponse{}, false, nil
	}
	status, err := strconv.Atoi(code)
	if err != nil {
		return StoredResponse{}, false, nil
	}

	return StoredResponse{Status: status, Body: []byte(body)}, true, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
