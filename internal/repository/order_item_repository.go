package repository

import (
	"context"

	"oliveshop/internal/domain/model"
)

// 注文明細（作成時の価格・商品名のスナップショット）
type OrderItemRepository interface {
	//注文IDを振って一括作成
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	//一覧画面用にまとめて取る（注文ID -> 明細）
	ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error)
}
