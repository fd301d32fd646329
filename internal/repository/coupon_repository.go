package repository

import (
	"context"

	"oliveshop/internal/domain/model"
)

type CouponRepository interface {
	// codeは正規化済み
	FindByCode(ctx context.Context, code string) (model.Coupon, bool, error)
	FindByID(ctx context.Context, id int64) (model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
	Update(ctx context.Context, c model.Coupon) error
	Delete(ctx context.Context, id int64) error

	// 上限内のときだけused_countを+1
	IncrementUsage(ctx context.Context, couponID int64) (bool, error)
}
