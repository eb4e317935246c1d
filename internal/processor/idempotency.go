package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shamcart/grocer-gateway/pkg/logger"
	"github.com/shamcart/grocer-gateway/pkg/redis"
)

var (
	ErrAlreadySettled     = errors.New("order already settled")
	ErrLockAcquireFailed  = errors.New("failed to acquire settlement lock")
	ErrMaxRetriesExceeded = errors.New("maximum settlement retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL time.Duration

	SettledTTL time.Duration

	MaxRetries int

	RetryKeyPrefix string

	LockKeyPrefix string

	SettledKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:          30 * time.Second,
		SettledTTL:       24 * time.Hour,
		MaxRetries:       3,
		RetryKeyPrefix:   "settlement:retry:",
		LockKeyPrefix:    "settlement:lock:",
		SettledKeyPrefix: "settlement:done:",
	}
}

// IdempotencyService guards settlement so an order is credited points at most
// once even when the stream delivers its event twice or two consumers race.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type SettlementContext struct {
	OrderKey     string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
	service      *IdempotencyService
}

func (s *IdempotencyService) AcquireSettlementLock(ctx context.Context, orderKey string) (*SettlementContext, error) {
	// Long-term marker first: a settled order must never be settled again.
	settledKey := s.config.SettledKeyPrefix + orderKey
	exists, err := s.redis.Exist(settledKey)
	if err != nil {
		logger.Warn("failed to check settled marker", "order", orderKey, "error", err)
		// Continue on check failure - the conditional ledger writes are the
		// second line of defense.
	} else if exists > 0 {
		return nil, ErrAlreadySettled
	}

	retryKey := s.config.RetryKeyPrefix + orderKey
	retryCountBytes, err := s.redis.Get(retryKey)
	retryCount := 0
	if err == nil && len(retryCountBytes) > 0 {
		fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	}

	if retryCount >= s.config.MaxRetries {
		logger.Error("max settlement retries exceeded", "order", orderKey, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: order=%s, retries=%d", ErrMaxRetriesExceeded, orderKey, retryCount)
	}

	lockKey := s.config.LockKeyPrefix + orderKey
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("failed to acquire settlement lock", "order", orderKey, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		logger.Info("settlement lock held by another consumer", "order", orderKey)
		return nil, ErrLockAcquireFailed
	}

	logger.Info("settlement lock acquired", "order", orderKey, "retry_count", retryCount, "lock_ttl", s.config.LockTTL)

	return &SettlementContext{
		OrderKey:     orderKey,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
		service:      s,
	}, nil
}

func (s *IdempotencyService) MarkSettled(ctx context.Context, sc *SettlementContext) error {
	settledKey := s.config.SettledKeyPrefix + sc.OrderKey
	err := s.redis.Set(settledKey, []byte("1"), s.config.SettledTTL)
	if err != nil {
		logger.Error("failed to set settled marker", "order", sc.OrderKey, "error", err)
		return fmt.Errorf("failed to mark as settled: %w", err)
	}

	s.cleanup(ctx, sc)

	logger.Info("order settlement recorded", "order", sc.OrderKey, "retry_count", sc.RetryCount)
	return nil
}

func (s *IdempotencyService) MarkFailure(ctx context.Context, sc *SettlementContext, reason error) error {
	retryKey := s.config.RetryKeyPrefix + sc.OrderKey
	newRetryCount := sc.RetryCount + 1
	retryValue := []byte(fmt.Sprintf("%d", newRetryCount))

	err := s.redis.Set(retryKey, retryValue, s.config.SettledTTL)
	if err != nil {
		logger.Error("failed to increment settlement retry counter", "order", sc.OrderKey, "error", err)
	}

	lockKey := s.config.LockKeyPrefix + sc.OrderKey
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("failed to remove settlement lock", "order", sc.OrderKey, "error", err)
	}

	logger.Warn("settlement failed, will retry",
		"order", sc.OrderKey,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, sc *SettlementContext) error {
	if sc == nil || !sc.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + sc.OrderKey
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("failed to release settlement lock", "order", sc.OrderKey, "error", err)
		return err
	}

	sc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) cleanup(ctx context.Context, sc *SettlementContext) {
	lockKey := s.config.LockKeyPrefix + sc.OrderKey
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("failed to cleanup settlement lock", "order", sc.OrderKey, "error", err)
	}

	retryKey := s.config.RetryKeyPrefix + sc.OrderKey
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("failed to cleanup settlement retry counter", "order", sc.OrderKey, "error", err)
	}

	sc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, orderKey string) (int, error) {
	retryKey := s.config.RetryKeyPrefix + orderKey
	retryCountBytes, err := s.redis.Get(retryKey)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsSettled(ctx context.Context, orderKey string) (bool, error) {
	settledKey := s.config.SettledKeyPrefix + orderKey
	exists, err := s.redis.Exist(settledKey)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
