package model

import "time"

// 配送国は固定
const AddressCountry = "TR"

// 配送先住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	RecipientName string `gorm:"type:varchar(255);not null" json:"recipient_name"`

	//電話番号
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`

	Line1 string `gorm:"type:varchar(255);not null" json:"line1"`
	Line2 string `gorm:"type:varchar(255)" json:"line2"`

	//市（il）
	City string `gorm:"type:varchar(100);not null" json:"city"`

	//区（ilçe）
	District string `gorm:"type:varchar(100);not null" json:"district"`

	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
	Country    string `gorm:"type:varchar(2);not null;default:'TR'" json:"country"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// 注文に保存する住所のコピー（住所が後で変わっても注文は変わらない）
type AddressSnapshot struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	District      string `json:"district"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country"`
}

func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		District:      a.District,
		PostalCode:    a.PostalCode,
		Country:       AddressCountry,
	}
}
