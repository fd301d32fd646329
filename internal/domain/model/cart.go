package model

import "time"

// 会員ならUserID、ゲストならGuestIDのどちらか一方だけを持つ
type Cart struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	GuestID   *string    `gorm:"type:varchar(64);uniqueIndex" json:"guest_id,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// CartOwner はカートの持ち主
type CartOwner struct {
	UserID  *int64
	GuestID *string
}

func UserOwner(userID int64) CartOwner {
	return CartOwner{UserID: &userID}
}

func GuestOwner(guestID string) CartOwner {
	return CartOwner{GuestID: &guestID}
}

// Valid は持ち主がちょうど1つ指定されているか
func (o CartOwner) Valid() bool {
	if o.UserID != nil {
		return *o.UserID > 0 && o.GuestID == nil
	}
	return o.GuestID != nil && *o.GuestID != ""
}

func (o CartOwner) IsGuest() bool {
	return o.UserID == nil && o.GuestID != nil
}
