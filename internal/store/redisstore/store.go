package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	Client *redis.Client
	prefix string
}

func New(addr, password string, db int) *Store {
	return &Store{
		Client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		}),
		prefix: "goldgpt:",
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.Client.Close()
}

// Allow counts a hit against key in the current fixed window and reports
// whether it is within limit. remaining is never negative.
func (s *Store) Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error) {
	bucket := time.Now().UnixNano() / int64(window)
	k := fmt.Sprintf("%sratelimit:%s:%d", s.prefix, key, bucket)

	var incr *redis.IntCmd
	_, err = s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, window)
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	n := int(incr.Val())
	remaining = limit - n
	if remaining < 0 {
		remaining = 0
	}
	return n <= limit, remaining, nil
}
