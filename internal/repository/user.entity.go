package repository

import (
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
)

type UserEntity struct {
	ID                int64      `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	Role              string     `db:"role"                gorm:"column:role;not null;default:customer"`
	MembershipLevel   string     `db:"membership_level"    gorm:"column:membership_level;not null;default:None"`
	MembershipGraceAt *time.Time `db:"membership_grace_at" gorm:"column:membership_grace_at"`
	Points            int64      `db:"points"              gorm:"column:points;not null;default:0"`
	CreatedAt         time.Time  `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		ID:                m.ID,
		Role:              string(m.Role),
		MembershipLevel:   string(m.MembershipLevel),
		MembershipGraceAt: m.MembershipGraceAt,
		Points:            m.Points,
		CreatedAt:         m.CreatedAt,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:                e.ID,
		Role:              model.Role(e.Role),
		MembershipLevel:   model.MembershipLevel(e.MembershipLevel),
		MembershipGraceAt: e.MembershipGraceAt,
		Points:            e.Points,
		CreatedAt:         e.CreatedAt,
	}
}
