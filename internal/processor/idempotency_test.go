package processor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/shamcart/grocer-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	// unique connection name per test to avoid the adapter registry cache
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func TestIdempotencyService_AcquireSettlementLock(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	sc, err := service.AcquireSettlementLock(ctx, "101")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, "101", sc.OrderKey)
	assert.Equal(t, 0, sc.RetryCount)
	assert.False(t, sc.IsRetry)
	assert.True(t, sc.lockAcquired)
}

func TestIdempotencyService_ConcurrentConsumersExcluded(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	first, err := service.AcquireSettlementLock(ctx, "102")
	require.NoError(t, err)

	second, err := service.AcquireSettlementLock(ctx, "102")
	assert.ErrorIs(t, err, ErrLockAcquireFailed)
	assert.Nil(t, second)
	assert.True(t, first.lockAcquired)
}

func TestIdempotencyService_MarkSettled(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	sc, err := service.AcquireSettlementLock(ctx, "103")
	require.NoError(t, err)

	require.NoError(t, service.MarkSettled(ctx, sc))

	settled, err := service.IsSettled(ctx, "103")
	require.NoError(t, err)
	assert.True(t, settled)

	// A redelivery of the same order is refused outright.
	again, err := service.AcquireSettlementLock(ctx, "103")
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.Nil(t, again)
}

func TestIdempotencyService_MarkFailureIncrementsRetry(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	sc, err := service.AcquireSettlementLock(ctx, "104")
	require.NoError(t, err)
	require.NoError(t, service.MarkFailure(ctx, sc, assert.AnError))

	count, err := service.GetRetryCount(ctx, "104")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	retry, err := service.AcquireSettlementLock(ctx, "104")
	require.NoError(t, err)
	assert.Equal(t, 1, retry.RetryCount)
	assert.True(t, retry.IsRetry)
}

func TestIdempotencyService_MaxRetriesExceeded(t *testing.T) {
	_, adapter := setupTestRedis(t)
	config := DefaultIdempotencyConfig()
	config.MaxRetries = 2
	service := NewIdempotencyService(adapter, config)
	ctx := context.Background()

	for i := 0; i < config.MaxRetries; i++ {
		sc, err := service.AcquireSettlementLock(ctx, "105")
		require.NoError(t, err)
		require.NoError(t, service.MarkFailure(ctx, sc, assert.AnError))
	}

	sc, err := service.AcquireSettlementLock(ctx, "105")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Nil(t, sc)
}

func TestIdempotencyService_ReleaseLock(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	sc, err := service.AcquireSettlementLock(ctx, "106")
	require.NoError(t, err)

	require.NoError(t, service.ReleaseLock(ctx, sc))
	assert.False(t, sc.lockAcquired)

	// Another consumer can now take over.
	next, err := service.AcquireSettlementLock(ctx, "106")
	require.NoError(t, err)
	require.NotNil(t, next)
}
