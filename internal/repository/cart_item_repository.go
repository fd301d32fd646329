package repository

import (
	"context"

	"oliveshop/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品はプラス。合計が在庫を超えるならfalse
	AddWithinStock(ctx context.Context, cartID int64, productID int64, qty int64) (bool, error)
	// 明細が無ければErrNotFound
	SetQuantity(ctx context.Context, cartID int64, productID int64, qty int64) error
	Create(ctx context.Context, item model.CartItem) error
	Delete(ctx context.Context, cartID int64, productID int64) error
}
