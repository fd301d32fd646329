package model

import "time"

type AuditAction string

const (
	AuditActionUpdateStock       AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionStockShortfall    AuditAction = "STOCK_SHORTFALL"
	AuditActionCouponChange      AuditAction = "COUPON_CHANGE"
	AuditActionShippingSettings  AuditAction = "UPDATE_SHIPPING_SETTINGS"
	AuditActionLoyaltyTier       AuditAction = "UPDATE_LOYALTY_TIER"
	AuditActionCleanupPending    AuditAction = "CLEANUP_PENDING_ORDERS"
)

type AuditResourceType string

const (
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourceUser     AuditResourceType = "user"
	AuditResourceCoupon   AuditResourceType = "coupon"
	AuditResourceSettings AuditResourceType = "settings"
)

// 監査ログ
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
// システム処理（決済コールバックなど）はActorUserID=0
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`
	BeforeJSON   string            `gorm:"type:text" json:"before_json"`
	AfterJSON    string            `gorm:"type:text" json:"after_json"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}
