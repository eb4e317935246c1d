package membership

import (
	"testing"
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var thresholds = model.TierThresholds{
	Silver:   10_000,
	Gold:     50_000,
	Platinum: 200_000,
	Diamond:  500_000,
}

func settings() model.Settings {
	return model.Settings{
		Thresholds:          thresholds,
		MembershipGraceDays: 14,
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		balance int64
		want    model.MembershipLevel
	}{
		{0, model.LevelNone},
		{9_999, model.LevelNone},
		{10_000, model.LevelSilver},
		{49_999, model.LevelSilver},
		{50_000, model.LevelGold},
		{200_000, model.LevelPlatinum},
		{1_000_000, model.LevelDiamond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.balance, thresholds), "balance %d", tt.balance)
	}
}

func TestEvaluate_UpgradeImmediate(t *testing.T) {
	now := time.Now()
	grace := now.Add(24 * time.Hour)
	u := model.User{MembershipLevel: model.LevelSilver, MembershipGraceAt: &grace}

	d := Evaluate(u, 60_000, settings(), now)
	assert.Equal(t, OutcomeUpgrade, d.Outcome)
	assert.Equal(t, model.LevelGold, d.Level)
	assert.Nil(t, d.GraceUntil, "upgrade clears the grace window")
}

func TestEvaluate_EnterGraceOnce(t *testing.T) {
	now := time.Now()
	u := model.User{MembershipLevel: model.LevelGold}

	d := Evaluate(u, 20_000, settings(), now)
	require.Equal(t, OutcomeEnterGrace, d.Outcome)
	require.NotNil(t, d.GraceUntil)
	assert.Equal(t, model.LevelGold, d.Level, "tier retained during grace")
	assert.Equal(t, now.Add(14*24*time.Hour), *d.GraceUntil)

	// re-evaluating with the window already open must not extend it
	u.MembershipGraceAt = d.GraceUntil
	later := now.Add(48 * time.Hour)
	d2 := Evaluate(u, 20_000, settings(), later)
	assert.Equal(t, OutcomeKeep, d2.Outcome)
	require.NotNil(t, d2.GraceUntil)
	assert.Equal(t, *d.GraceUntil, *d2.GraceUntil)
}

func TestEvaluate_RecoveryClearsGrace(t *testing.T) {
	now := time.Now()
	grace := now.Add(7 * 24 * time.Hour)
	u := model.User{MembershipLevel: model.LevelGold, MembershipGraceAt: &grace}

	d := Evaluate(u, 55_000, settings(), now)
	assert.Equal(t, OutcomeClearGrace, d.Outcome)
	assert.Equal(t, model.LevelGold, d.Level)
	assert.Nil(t, d.GraceUntil)
}

func TestEvaluate_DowngradeAfterExpiry(t *testing.T) {
	now := time.Now()
	grace := now.Add(-time.Hour)
	u := model.User{MembershipLevel: model.LevelGold, MembershipGraceAt: &grace}

	d := Evaluate(u, 20_000, settings(), now)
	assert.Equal(t, OutcomeDowngrade, d.Outcome)
	assert.Equal(t, model.LevelSilver, d.Level, "falls to the highest qualifying tier")
	assert.Nil(t, d.GraceUntil)
}

func TestEvaluate_DowngradeSkipsTiers(t *testing.T) {
	now := time.Now()
	grace := now.Add(-time.Minute)
	u := model.User{MembershipLevel: model.LevelDiamond, MembershipGraceAt: &grace}

	d := Evaluate(u, 0, settings(), now)
	assert.Equal(t, OutcomeDowngrade, d.Outcome)
	assert.Equal(t, model.LevelNone, d.Level)
}

func TestEvaluate_StableUserUntouched(t *testing.T) {
	now := time.Now()
	u := model.User{MembershipLevel: model.LevelSilver}

	d := Evaluate(u, 15_000, settings(), now)
	assert.Equal(t, OutcomeKeep, d.Outcome)
	assert.Equal(t, model.LevelSilver, d.Level)
	assert.Nil(t, d.GraceUntil)
}
