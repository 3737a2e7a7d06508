package health

import (
	"context"
	"errors"
	"testing"

	"satfolio-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestCollectHealth_AllConnected(t *testing.T) {
	rdb, mr := newRedis(t)
	require.NoError(t, mr.Set(middleware.KeyReqTotal, "12"))
	require.NoError(t, mr.Set(middleware.KeyReqErrors, "1"))
	require.NoError(t, mr.Set(middleware.KeyResTime, "60"))
	require.NoError(t, mr.Set(middleware.KeyResCount, "12"))

	result := CollectHealth(context.Background(), rdb, pinger{})
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["database"].Status)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, 12, result.Traffic.TotalRequests)
	assert.Equal(t, 1, result.Traffic.FailedCount)
	assert.Equal(t, "5.0", result.Traffic.AvgResponseTime)
}

func TestCollectHealth_DegradedOnDBFailure(t *testing.T) {
	rdb, _ := newRedis(t)

	result := CollectHealth(context.Background(), rdb, pinger{err: errors.New("down")})
	assert.Equal(t, "degraded", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
}

func TestCollectHealth_NilDB(t *testing.T) {
	rdb, _ := newRedis(t)

	result := CollectHealth(context.Background(), rdb, nil)
	assert.Equal(t, "degraded", result.Status)
}

func TestResetStats(t *testing.T) {
	rdb, mr := newRedis(t)
	require.NoError(t, mr.Set(middleware.KeyReqTotal, "42"))

	require.NoError(t, ResetStats(context.Background(), rdb))
	assert.False(t, mr.Exists(middleware.KeyReqTotal))
	assert.True(t, mr.Exists(middleware.KeyStartTime))
}
