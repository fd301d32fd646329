package repository

import "context"

// 在庫の更新と履歴保存をまとめた約束。
type InventoryRepository interface {
	// 在庫を現在値に設定して調整履歴を残す。変更前の在庫を返す
	SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) (int64, error)

	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
}
