package model

import "time"

// 管理画面からの在庫調整の履歴
// Deltaは新在庫 - 旧在庫
type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	AdminUserID int64     `gorm:"not null;index" json:"admin_user_id"`
	StockBefore int64     `gorm:"not null" json:"stock_before"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// AllModels はAutoMigrateの対象
func AllModels() []any {
	return []any{
		&User{},
		&Category{},
		&Subcategory{},
		&Product{},
		&InventoryAdjustment{},
		&Cart{},
		&CartItem{},
		&Address{},
		&Coupon{},
		&ShippingSettings{},
		&Order{},
		&OrderItem{},
		&AuditLog{},
	}
}
