package repository

import (
	"context"

	"oliveshop/internal/domain/model"
)

type CartRepository interface {
	// 持ち主のカートを取得。無ければErrNotFound
	FindByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	// 行ロック付き（Tx内で使う）
	FindByOwnerForUpdate(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	// 無ければ作る
	GetOrCreate(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	// 明細を全削除
	Clear(ctx context.Context, cartID int64) error
	// カートごと削除（明細はcascade）
	Delete(ctx context.Context, cartID int64) error
}
