package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCoupon(t *testing.T, repo *CouponRepository, c model.Coupon) *model.Coupon {
	t.Helper()
	if c.DiscountType == "" {
		c.DiscountType = model.DiscountPercent
		c.DiscountValue = 10
	}
	if c.UsageType == "" {
		c.UsageType = model.UsageMultiple
	}
	if c.Assignment == "" {
		c.Assignment = model.AssignRestricted
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = time.Now().Add(24 * time.Hour)
	}
	c.IsActive = true

	created, err := repo.Create(context.Background(), &c)
	require.NoError(t, err)
	return created
}

func TestCouponRepository_GetByCode(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()

	seedCoupon(t, repo, model.Coupon{Code: "welcome10"})

	t.Run("matches case-insensitively", func(t *testing.T) {
		for _, code := range []string{"WELCOME10", "welcome10", "  Welcome10  "} {
			c, err := repo.GetByCode(ctx, code)
			require.NoError(t, err, code)
			assert.Equal(t, "WELCOME10", c.Code)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := repo.GetByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})
}

func TestCouponRepository_Redeem_GlobalLimit(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()

	c := seedCoupon(t, repo, model.Coupon{Code: "CAP2", MaxUsesGlobal: 2})

	require.NoError(t, repo.Redeem(ctx, c.ID, 1, 0))
	require.NoError(t, repo.Redeem(ctx, c.ID, 2, 0))

	err := repo.Redeem(ctx, c.ID, 3, 0)
	assert.ErrorIs(t, err, ErrCouponGlobalLimit)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.UsedCount, "counter never passes the cap")
}

func TestCouponRepository_Redeem_PerUserLimit(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()

	c := seedCoupon(t, repo, model.Coupon{Code: "ONCE", MaxUsesPerUser: 1})

	require.NoError(t, repo.Redeem(ctx, c.ID, 5, c.MaxUsesPerUser))

	err := repo.Redeem(ctx, c.ID, 5, c.MaxUsesPerUser)
	assert.ErrorIs(t, err, ErrCouponUserLimit)

	count, err := repo.RedemptionCount(ctx, c.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// a different user is unaffected
	require.NoError(t, repo.Redeem(ctx, c.ID, 6, c.MaxUsesPerUser))
}

func TestCouponRepository_Redeem_ConcurrentGlobalLimit(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()

	c := seedCoupon(t, repo, model.Coupon{Code: "RACE3", MaxUsesGlobal: 3})

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			errs <- repo.Redeem(ctx, c.ID, userID, 0)
		}(int64(100 + i))
	}
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrCouponGlobalLimit)
			losses++
		}
	}
	assert.Equal(t, 3, wins)
	assert.Equal(t, attempts-3, losses)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.UsedCount)
}

func TestCouponRepository_Redeem_Unlimited(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()

	c := seedCoupon(t, repo, model.Coupon{Code: "OPEN"})

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Redeem(ctx, c.ID, 9, 0))
	}

	count, err := repo.RedemptionCount(ctx, c.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestCouponRepository_AssignmentRoundTrip(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()

	created := seedCoupon(t, repo, model.Coupon{
		Code:           "VIP",
		Assignment:     model.AssignLevels,
		AssignedLevels: []model.MembershipLevel{model.LevelGold, model.LevelDiamond},
	})

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignLevels, got.Assignment)
	assert.Equal(t, []model.MembershipLevel{model.LevelGold, model.LevelDiamond}, got.AssignedLevels)
}

func TestCouponRepository_Delete(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCouponRepository(db)
	ctx := context.Background()

	c := seedCoupon(t, repo, model.Coupon{Code: "GONE"})

	require.NoError(t, repo.Delete(ctx, c.ID))
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), ErrCouponNotFound)

	_, err := repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}
