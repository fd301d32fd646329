package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusFailed     OrderStatus = "FAILED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// 遷移できる先
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	switch st {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusFailed, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// 管理画面から付けられるか（PAID/FAILEDは決済の確定処理だけが付ける）
func (s OrderStatus) CanAdminTransitionTo(next OrderStatus) bool {
	if next == OrderStatusPaid || next == OrderStatusFailed {
		return false
	}
	return s.CanTransitionTo(next)
}

// 終端（これ以上変わらない）
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

type Order struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID *int64 `gorm:"index" json:"user_id,omitempty"`

	//ゲスト注文のときだけ
	GuestEmail string `gorm:"type:varchar(255)" json:"guest_email,omitempty"`

	//元のカート（完了時にクリアする）
	CartID *int64 `json:"cart_id,omitempty"`

	Status        OrderStatus   `gorm:"type:varchar(20);not null;index:idx_orders_status_created" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`

	//こちらで発行する参照ID（決済側のconversation id）
	PaymentReference string `gorm:"type:varchar(64);not null;uniqueIndex" json:"payment_reference"`

	//決済側のセッショントークン
	PaymentToken *string `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	PaymentID    string  `gorm:"type:varchar(255)" json:"payment_id,omitempty"`

	CouponID   *int64 `json:"coupon_id,omitempty"`
	CouponCode string `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`

	Subtotal    int64 `gorm:"not null" json:"subtotal"`
	Discount    int64 `gorm:"not null" json:"discount"`
	ShippingFee int64 `gorm:"not null" json:"shipping_fee"`
	Total       int64 `gorm:"not null" json:"total"`

	ShippingAddress AddressSnapshot `gorm:"type:jsonb;serializer:json;not null" json:"shipping_address"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_orders_status_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
