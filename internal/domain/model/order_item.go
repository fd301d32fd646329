package model

import "time"

// 注文時点の商品名と単価を保存する
type OrderItem struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID              int64     `gorm:"not null;index" json:"order_id"`
	ProductID            int64     `gorm:"not null;index" json:"product_id"`
	ProductTitleSnapshot string    `gorm:"type:varchar(255);not null" json:"product_title"`
	UnitPriceSnapshot    int64     `gorm:"not null" json:"unit_price"`
	Quantity             int64     `gorm:"not null" json:"quantity"`
	CreatedAt            time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) LineTotal() int64 {
	return i.UnitPriceSnapshot * i.Quantity
}
