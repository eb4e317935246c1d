// Package membership derives a user's tier from their wallet balance and the
// branch thresholds. Downgrades are softened by a grace window; the machine is
// evaluated lazily after every ledger mutation, there is no background sweep.
package membership

import (
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
)

// LevelFor returns the highest tier whose threshold is <= balance.
func LevelFor(balance int64, t model.TierThresholds) model.MembershipLevel {
	switch {
	case balance >= t.Diamond:
		return model.LevelDiamond
	case balance >= t.Platinum:
		return model.LevelPlatinum
	case balance >= t.Gold:
		return model.LevelGold
	case balance >= t.Silver:
		return model.LevelSilver
	default:
		return model.LevelNone
	}
}

type Outcome string

const (
	OutcomeKeep       Outcome = "keep"
	OutcomeUpgrade    Outcome = "upgrade"
	OutcomeEnterGrace Outcome = "enter_grace"
	OutcomeClearGrace Outcome = "clear_grace"
	OutcomeDowngrade  Outcome = "downgrade"
)

// Decision is what the caller must persist on the user row.
type Decision struct {
	Outcome    Outcome
	Level      model.MembershipLevel
	GraceUntil *time.Time
}

// Evaluate recomputes the stored tier against the current balance.
//
// Upgrades apply immediately and clear any grace window. A drop below the
// stored tier's threshold starts the grace window once per occurrence;
// re-evaluating without a balance change neither resets nor extends it.
// Recovery above the threshold before expiry clears the window. Only after
// expiry does the stored tier actually fall, directly to the highest
// qualifying level.
func Evaluate(u model.User, balance int64, s model.Settings, now time.Time) Decision {
	earned := LevelFor(balance, s.Thresholds)

	if earned.Rank() > u.MembershipLevel.Rank() {
		return Decision{Outcome: OutcomeUpgrade, Level: earned, GraceUntil: nil}
	}

	if earned.Rank() == u.MembershipLevel.Rank() {
		if u.MembershipGraceAt != nil {
			// balance recovered, close the window without downgrading
			return Decision{Outcome: OutcomeClearGrace, Level: u.MembershipLevel, GraceUntil: nil}
		}
		return Decision{Outcome: OutcomeKeep, Level: u.MembershipLevel, GraceUntil: nil}
	}

	// earned < stored: either start grace, stay in it, or let it expire
	if u.MembershipGraceAt == nil {
		until := now.Add(time.Duration(s.MembershipGraceDays) * 24 * time.Hour)
		return Decision{Outcome: OutcomeEnterGrace, Level: u.MembershipLevel, GraceUntil: &until}
	}

	if now.After(*u.MembershipGraceAt) {
		return Decision{Outcome: OutcomeDowngrade, Level: earned, GraceUntil: nil}
	}

	keep := *u.MembershipGraceAt
	return Decision{Outcome: OutcomeKeep, Level: u.MembershipLevel, GraceUntil: &keep}
}
