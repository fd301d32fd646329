package model

import "time"

// 設定は1行だけ
const ShippingSettingsID int64 = 1

type ShippingSettings struct {
	ID                    int64     `gorm:"primaryKey" json:"-"`
	BaseFee               int64     `gorm:"not null" json:"base_fee"`
	FreeShippingThreshold int64     `gorm:"not null" json:"free_shipping_threshold"`
	IsActive              bool      `gorm:"not null" json:"is_active"`
	UpdatedAt             time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
