package model

import "time"

type CouponType string

const (
	CouponPercentage CouponType = "PERCENTAGE"
	CouponFixed      CouponType = "FIXED"
)

// クーポン
// UsedCountは決済完了時の引き当てでだけ増える
type Coupon struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Type           CouponType `gorm:"type:varchar(20);not null" json:"type"`
	Value          int64      `gorm:"not null" json:"value"`
	MinOrderAmount *int64     `json:"min_order_amount,omitempty"`
	UsageLimit     *int64     `json:"usage_limit,omitempty"`
	UsedCount      int64      `gorm:"not null;default:0" json:"used_count"`
	StartsAt       time.Time  `gorm:"not null" json:"starts_at"`
	EndsAt         time.Time  `gorm:"not null" json:"ends_at"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
