package repository

import (
	"context"
	"time"

	"oliveshop/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByPaymentToken(ctx context.Context, token string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	SetPaymentToken(ctx context.Context, orderID int64, token string) error
	SetPaymentID(ctx context.Context, orderID int64, paymentID string) error

	// PENDINGのときだけ確定する。取れなければfalse
	ClaimPending(ctx context.Context, orderID int64, status model.OrderStatus, payment model.PaymentStatus) (bool, error)
	// PENDING注文のカート参照を付け替える（ゲストカートの統合時）
	MovePendingCart(ctx context.Context, fromCartID, toCartID int64) (int64, error)
	// 現在のstatusがfromのときだけtoにする
	TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error)

	// 期限切れPENDINGをロックして返す（ロック中の行は飛ばす）
	LockExpiredPending(ctx context.Context, cutoff time.Time) ([]int64, error)
	// PENDINGのままの注文だけ明細ごと削除
	DeletePending(ctx context.Context, orderIDs []int64) (int64, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
