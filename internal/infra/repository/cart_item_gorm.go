package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// カート明細を一覧取得
func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 在庫を超えない範囲で数量加算（無ければ作成）
// 1文のupsertなので同時追加でも在庫を超えない
const addWithinStockSQL = `
INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
SELECT ?, p.id, ?, NOW(), NOW()
FROM products p
WHERE p.id = ? AND p.stock >= ? AND p.deleted_at IS NULL
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
WHERE cart_items.quantity + EXCLUDED.quantity <= (
	SELECT stock FROM products WHERE id = EXCLUDED.product_id
)`

func (r *CartItemGormRepository) AddWithinStock(ctx context.Context, cartID int64, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, errors.New("invalid quantity")
	}

	res := r.db.WithContext(ctx).Exec(addWithinStockSQL, cartID, qty, productID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// 明細の数量を更新
func (r *CartItemGormRepository) SetQuantity(ctx context.Context, cartID int64, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を作成（マージで使う）
func (r *CartItemGormRepository) Create(ctx context.Context, item model.CartItem) error {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		if isUniqueViolation(err) {
			return repo.ErrConflict
		}
		return err
	}
	return nil
}

// 明細を削除
func (r *CartItemGormRepository) Delete(ctx context.Context, cartID int64, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
