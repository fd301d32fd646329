package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫を「現在値」に更新し、調整履歴も残す
func (r *InventoryGormRepository) SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) (int64, error) {
	var before int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//現在の在庫をロックして取得
		var p model.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, productID).Error; err != nil {
			if isNotFound(err) {
				return repo.ErrNotFound
			}
			return err
		}
		before = p.Stock

		//products.stockを更新
		res := tx.Model(&model.Product{}).
			Where("id = ?", productID).
			Update("stock", newStock)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		//adjustmentsを作成
		adj := model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			StockBefore: p.Stock,
			Delta:       newStock - p.Stock,
			Reason:      reason,
		}
		return tx.Create(&adj).Error
	})
	if err != nil {
		return 0, err
	}
	return before, nil
}

// 在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}
