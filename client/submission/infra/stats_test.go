package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crpt-client/client/submission/domain"
)

func TestMemoryStatsStore_CountsByOutcomeAndDocType(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSubmitted, DocType: "LP_INTRODUCE_GOODS"}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSubmitted, DocType: "LP_INTRODUCE_GOODS"}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeRateLimited, DocType: "LP_INTRODUCE_GOODS"}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeTransportFailed}))

	assert.Equal(t, int64(2), s.Count(domain.OutcomeSubmitted))
	assert.Equal(t, int64(1), s.Count(domain.OutcomeRateLimited))
	assert.Equal(t, int64(4), s.Total())

	byType := s.ByDocType()
	assert.Equal(t, int64(2), byType["LP_INTRODUCE_GOODS"][domain.OutcomeSubmitted])
	assert.Len(t, byType, 1)
}

func TestRedisStatsStore_Keys(t *testing.T) {
	s := NewRedisStatsStore(nil, WithStatsPrefix("crpt:test:"))
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	keys := s.Keys(domain.StatsEvent{Outcome: domain.OutcomeSubmitted, DocType: "LP_INTRODUCE_GOODS", At: at})
	assert.Equal(t, []string{
		"crpt:test:total",
		"crpt:test:minute:202503040506",
		"crpt:test:doctype:LP_INTRODUCE_GOODS",
	}, keys)

	s = NewRedisStatsStore(nil, WithStatsBucket(" NONE "))
	assert.Equal(t, []string{"crpt:stats:total"}, s.Keys(domain.StatsEvent{At: at}))
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	s := NewRedisStatsStore(nil)
	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeSubmitted}))
}

func TestRedisStatsStore_ReportsRedisErrors(t *testing.T) {
	s := NewRedisStatsStore(unreachableRedis(t))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSubmitted})
	require.Error(t, err)
}

func TestRedisStatsStore_RecordIncrementsAndExpiresTimeSeries(t *testing.T) {
	mr, rdb := localRedis(t)
	s := NewRedisStatsStore(rdb, WithStatsPrefix("crpt:test"), WithStatsTTL(time.Hour))
	ctx := context.Background()
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	submitted := domain.StatsEvent{Outcome: domain.OutcomeSubmitted, DocType: "LP_INTRODUCE_GOODS", At: at}
	require.NoError(t, s.Record(ctx, submitted))
	require.NoError(t, s.Record(ctx, submitted))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeRateLimited, DocType: "LP_INTRODUCE_GOODS", At: at}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{At: at}))

	const (
		total   = "crpt:test:total"
		minute  = "crpt:test:minute:202503040506"
		doctype = "crpt:test:doctype:LP_INTRODUCE_GOODS"
	)

	assert.Equal(t, "2", mr.HGet(total, "submitted"))
	assert.Equal(t, "1", mr.HGet(total, "rate_limited"))
	assert.Equal(t, "1", mr.HGet(total, "unknown"))
	assert.Equal(t, "2", mr.HGet(minute, "submitted"))
	assert.Equal(t, "1", mr.HGet(doctype, "rate_limited"))

	assert.Equal(t, time.Duration(0), mr.TTL(total), "cumulative total must not expire")
	assert.Equal(t, time.Hour, mr.TTL(minute))
	assert.Equal(t, time.Hour, mr.TTL(doctype))
}
