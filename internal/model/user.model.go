package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

// CanAdvanceOrders reports whether the role may move an order's status at all.
// Drivers are further restricted to their own assignment, enforced in the
// order service.
func (r Role) CanAdvanceOrders() bool {
	switch r {
	case RoleStaff, RoleManager, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

func (r Role) IsStaff() bool {
	switch r {
	case RoleStaff, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// MembershipLevel is ordered None < Silver < Gold < Platinum < Diamond.
type MembershipLevel string

const (
	LevelNone     MembershipLevel = "None"
	LevelSilver   MembershipLevel = "Silver"
	LevelGold     MembershipLevel = "Gold"
	LevelPlatinum MembershipLevel = "Platinum"
	LevelDiamond  MembershipLevel = "Diamond"
)

var levelRanks = map[MembershipLevel]int{
	LevelNone:     0,
	LevelSilver:   1,
	LevelGold:     2,
	LevelPlatinum: 3,
	LevelDiamond:  4,
}

func (l MembershipLevel) Rank() int { return levelRanks[l] }

func (l MembershipLevel) Valid() bool {
	_, ok := levelRanks[l]
	return ok
}

type User struct {
	ID                int64           `json:"id"`
	Role              Role            `json:"role"`
	MembershipLevel   MembershipLevel `json:"membership_level"`
	MembershipGraceAt *time.Time      `json:"membership_grace_until,omitempty"`
	Points            int64           `json:"points"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Principal is the authenticated caller supplied by the external auth
// collaborator, carried on request headers.
type Principal struct {
	UserID   int64
	Role     Role
	BranchID int64
}
