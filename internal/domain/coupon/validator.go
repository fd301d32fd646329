package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/money"
)

type Store interface {
	FindByCode(ctx context.Context, code string) (model.Coupon, bool, error)
}

type Validator struct {
	store Store
	now   func() time.Time
}

// DI
func NewValidator(store Store) *Validator {
	return &Validator{store: store, now: time.Now}
}

// テスト用（時刻を差し替える）
func NewValidatorWithClock(store Store, now func() time.Time) *Validator {
	return &Validator{store: store, now: now}
}

// コードを引いて判定する（最初に引っかかった理由を返す）
func (v *Validator) Validate(ctx context.Context, code string, subtotal int64) (Result, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Result{}, ErrInvalidCode
	}

	c, found, err := v.store.FindByCode(ctx, normalized)
	if err != nil {
		return Result{}, errors.Wrap(err, "lookup coupon")
	}
	if !found {
		return Result{}, ErrInvalidCode
	}

	discount, err := Check(c, subtotal, v.now())
	if err != nil {
		return Result{}, err
	}

	return Result{
		CouponID: c.ID,
		Code:     c.Code,
		Type:     c.Type,
		Value:    c.Value,
		Discount: discount,
	}, nil
}

// 割引は小計を超えない
func Check(c model.Coupon, subtotal int64, now time.Time) (int64, error) {
	if !c.IsActive {
		return 0, ErrInactive
	}
	if now.Before(c.StartsAt) {
		return 0, ErrNotYetValid
	}
	if now.After(c.EndsAt) {
		return 0, ErrExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return 0, ErrLimitReached
	}
	if c.MinOrderAmount != nil && subtotal < *c.MinOrderAmount {
		return 0, &Error{
			Reason:  ReasonBelowMinimum,
			Message: fmt.Sprintf("minimum order amount for this coupon is %s", money.Format(*c.MinOrderAmount)),
		}
	}

	var discount int64
	switch c.Type {
	case model.CouponPercentage:
		discount = money.PercentageDiscount(subtotal, c.Value)
	case model.CouponFixed:
		discount = c.Value
	default:
		return 0, errors.Errorf("unknown coupon type %q", c.Type)
	}
	return min(discount, subtotal), nil
}
