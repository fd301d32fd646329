package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug          string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Title         string         `gorm:"type:varchar(255);not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         int64          `gorm:"not null" json:"price"`
	Stock         int64          `gorm:"not null;check:stock >= 0" json:"stock"`
	IsActive      bool           `gorm:"not null;default:false" json:"is_active"`
	CategoryID    int64          `gorm:"not null;index" json:"category_id"`
	SubcategoryID *int64         `gorm:"index" json:"subcategory_id,omitempty"`
	Images        []string       `gorm:"type:jsonb;serializer:json" json:"images"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// カテゴリ
type Category struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug          string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Name          string        `gorm:"type:varchar(255);not null" json:"name"`
	IsActive      bool          `gorm:"not null;default:true" json:"is_active"`
	Subcategories []Subcategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"subcategories,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type Subcategory struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID int64     `gorm:"not null;index" json:"category_id"`
	Slug       string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
