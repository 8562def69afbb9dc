package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crpt-client/client/submission/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStatsStore struct {
	rdb redis.UniversalClient

	prefix string
	// ttl aplica apenas em chaves de série temporal.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "crpt:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys devolve as chaves tocadas por um evento; exposto para inspeção e testes.
func (s *RedisStatsStore) Keys(ev domain.StatsEvent) []string {
	keys := []string{s.prefix + ":total"}
	if s.bucket == "minute" {
		keys = append(keys, fmt.Sprintf("%s:minute:%s", s.prefix, eventTime(ev).UTC().Format("200601021504")))
	}
	if dt := strings.TrimSpace(ev.DocType); dt != "" {
		keys = append(keys, s.prefix+":doctype:"+dt)
	}
	return keys
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	field := string(ev.Outcome)
	if field == "" {
		field = "unknown"
	}

	pipe := s.rdb.Pipeline()
	for i, key := range s.Keys(ev) {
		pipe.HIncrBy(ctx, key, field, 1)
		// índice 0 é o total cumulativo
		if i > 0 && s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

func eventTime(ev domain.StatsEvent) time.Time {
	if ev.At.IsZero() {
		return time.Now()
	}
	return ev.At
}
