package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, db *testDB, u UserEntity) {
	t.Helper()
	if u.Role == "" {
		u.Role = string(model.RoleCustomer)
	}
	if u.MembershipLevel == "" {
		u.MembershipLevel = string(model.LevelNone)
	}
	require.NoError(t, db.rawDB.Create(&u).Error)
}

func TestPointsRepository_EarnAndRedeem(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPointsRepository(db.DB)
	users := NewUserRepository(db.DB)
	ctx := context.Background()

	seedUser(t, db, UserEntity{ID: 1})

	t.Run("earn accumulates on the user row", func(t *testing.T) {
		orderID := int64(5)
		txn, err := repo.Earn(ctx, 1, 36, &orderID)
		require.NoError(t, err)
		assert.Equal(t, model.PointsEarn, txn.Type)

		u, err := users.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(36), u.Points)
	})

	t.Run("redeem deducts conditionally", func(t *testing.T) {
		_, err := repo.Redeem(ctx, 1, 30, nil)
		require.NoError(t, err)

		u, err := users.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(6), u.Points)
	})

	t.Run("short balance is rejected, counter untouched", func(t *testing.T) {
		_, err := repo.Redeem(ctx, 1, 100, nil)
		assert.ErrorIs(t, err, model.ErrInsufficientPoints)

		u, err := users.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(6), u.Points)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.Earn(ctx, 999, 10, nil)
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.Redeem(ctx, 999, 10, nil)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("ledger lists both directions", func(t *testing.T) {
		txns, total, err := repo.List(ctx, 1, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, txns, 2)
	})
}

func TestPointsRepository_EarnOncePerOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPointsRepository(db.DB)
	users := NewUserRepository(db.DB)
	ctx := context.Background()

	seedUser(t, db, UserEntity{ID: 2})
	orderID := int64(501)

	first, err := repo.Earn(ctx, 2, 36, &orderID)
	require.NoError(t, err)

	replay, err := repo.Earn(ctx, 2, 36, &orderID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID, "replay returns the stored entry")

	u, err := users.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(36), u.Points, "counter moved once")

	_, total, err := repo.List(ctx, 2, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	t.Run("no order id earns every time", func(t *testing.T) {
		_, err := repo.Earn(ctx, 2, 5, nil)
		require.NoError(t, err)
		_, err = repo.Earn(ctx, 2, 5, nil)
		require.NoError(t, err)

		u, err := users.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(46), u.Points)
	})
}

func TestUserRepository_UpdateMembership(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db.DB)
	ctx := context.Background()

	seedUser(t, db, UserEntity{ID: 3})

	grace := time.Now().Add(14 * 24 * time.Hour).Truncate(time.Second)
	require.NoError(t, users.UpdateMembership(ctx, 3, model.LevelGold, &grace))

	u, err := users.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, model.LevelGold, u.MembershipLevel)
	require.NotNil(t, u.MembershipGraceAt)
	assert.True(t, u.MembershipGraceAt.Equal(grace))

	require.NoError(t, users.UpdateMembership(ctx, 3, model.LevelGold, nil))

	u, err = users.Get(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, u.MembershipGraceAt, "grace window cleared")

	assert.ErrorIs(t, users.UpdateMembership(ctx, 999, model.LevelSilver, nil), ErrUserNotFound)
}
