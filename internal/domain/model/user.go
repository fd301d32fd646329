package model

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// 会員ランク（送料無料の判定に使う）
type LoyaltyTier string

const (
	TierStandard LoyaltyTier = "STANDARD"
	TierGold     LoyaltyTier = "GOLD"
	TierPlatinum LoyaltyTier = "PLATINUM"
	TierDiamond  LoyaltyTier = "DIAMOND"
)

func (t LoyaltyTier) Valid() bool {
	switch t {
	case TierStandard, TierGold, TierPlatinum, TierDiamond:
		return true
	}
	return false
}

type User struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string      `gorm:"type:varchar(255);not null" json:"name"`
	Email        string      `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"column:password_hash;not null" json:"-"`
	Role         Role        `gorm:"type:varchar(20);not null;default:'CUSTOMER'" json:"role"`
	LoyaltyTier  LoyaltyTier `gorm:"type:varchar(20);not null;default:'STANDARD'" json:"loyalty_tier"`
	TokenVersion int         `gorm:"not null;default:0" json:"token_version"`
	IsActive     bool        `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
