package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"oliveshop/internal/domain/coupon"
	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/money"
	repo "oliveshop/internal/repository"
)

type CouponUsecase struct {
	coupons   repo.CouponRepository
	auditRepo repo.AuditLogRepository
	validator *coupon.Validator
}

func NewCouponUsecase(coupons repo.CouponRepository, auditRepo repo.AuditLogRepository, validator *coupon.Validator) *CouponUsecase {
	return &CouponUsecase{coupons: coupons, auditRepo: auditRepo, validator: validator}
}

type CouponInput struct {
	Code           string    `json:"code"`
	Type           string    `json:"type"`
	Value          int64     `json:"value"`
	MinOrderAmount *int64    `json:"min_order_amount"`
	UsageLimit     *int64    `json:"usage_limit"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	IsActive       *bool     `json:"is_active"`
}

func (in CouponInput) toModel() (model.Coupon, error) {
	code := coupon.NormalizeCode(in.Code)
	if code == "" {
		return model.Coupon{}, errValidation("code is required")
	}

	typ := model.CouponType(in.Type)
	switch typ {
	case model.CouponPercentage:
		if in.Value < 1 || in.Value > 100 {
			return model.Coupon{}, errValidation("percentage must be between 1 and 100")
		}
	case model.CouponFixed:
		if in.Value < 1 {
			return model.Coupon{}, errValidation("value must be positive")
		}
	default:
		return model.Coupon{}, errValidation("invalid type")
	}

	if in.MinOrderAmount != nil && *in.MinOrderAmount < 0 {
		return model.Coupon{}, errValidation("invalid min_order_amount")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return model.Coupon{}, errValidation("invalid usage_limit")
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() || !in.EndsAt.After(in.StartsAt) {
		return model.Coupon{}, errValidation("ends_at must be after starts_at")
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	return model.Coupon{
		Code:           code,
		Type:           typ,
		Value:          in.Value,
		MinOrderAmount: in.MinOrderAmount,
		UsageLimit:     in.UsageLimit,
		StartsAt:       in.StartsAt,
		EndsAt:         in.EndsAt,
		IsActive:       active,
	}, nil
}

func (u *CouponUsecase) List(ctx context.Context) ([]model.Coupon, error) {
	list, err := u.coupons.List(ctx)
	if err != nil {
		return nil, dbError(ctx, err)
	}
	if list == nil {
		list = []model.Coupon{}
	}
	return list, nil
}

func (u *CouponUsecase) Create(ctx context.Context, actorAdminUserID int64, in CouponInput) (model.Coupon, error) {
	if actorAdminUserID <= 0 {
		return model.Coupon{}, errUnauthorized()
	}

	c, err := in.toModel()
	if err != nil {
		return model.Coupon{}, err
	}

	created, err := u.coupons.Create(ctx, c)
	if errors.Is(err, repo.ErrConflict) {
		return model.Coupon{}, newError(KindConflict, "", "coupon code already exists")
	}
	if err != nil {
		return model.Coupon{}, dbError(ctx, err)
	}

	if err := u.audit(ctx, actorAdminUserID, created.ID, nil, &created); err != nil {
		return model.Coupon{}, err
	}
	return created, nil
}

func (u *CouponUsecase) Update(ctx context.Context, actorAdminUserID int64, id int64, in CouponInput) (model.Coupon, error) {
	if actorAdminUserID <= 0 {
		return model.Coupon{}, errUnauthorized()
	}
	if id <= 0 {
		return model.Coupon{}, errValidation("invalid id")
	}

	c, err := in.toModel()
	if err != nil {
		return model.Coupon{}, err
	}

	before, err := u.coupons.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Coupon{}, errNotFound()
	}
	if err != nil {
		return model.Coupon{}, dbError(ctx, err)
	}

	c.ID = id
	if err := u.coupons.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return model.Coupon{}, errNotFound()
		case errors.Is(err, repo.ErrConflict):
			return model.Coupon{}, newError(KindConflict, "", "coupon code already exists")
		}
		return model.Coupon{}, dbError(ctx, err)
	}

	after, err := u.coupons.FindByID(ctx, id)
	if err != nil {
		return model.Coupon{}, dbError(ctx, err)
	}
	if err := u.audit(ctx, actorAdminUserID, id, &before, &after); err != nil {
		return model.Coupon{}, err
	}
	return after, nil
}

func (u *CouponUsecase) Delete(ctx context.Context, actorAdminUserID int64, id int64) error {
	if actorAdminUserID <= 0 {
		return errUnauthorized()
	}
	if id <= 0 {
		return errValidation("invalid id")
	}

	before, err := u.coupons.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return dbError(ctx, err)
	}

	if err := u.coupons.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		return dbError(ctx, err)
	}
	return u.audit(ctx, actorAdminUserID, id, &before, nil)
}

func (u *CouponUsecase) audit(ctx context.Context, actor, id int64, before, after *model.Coupon) error {
	toJSON := func(c *model.Coupon) string {
		if c == nil {
			return ""
		}
		b, _ := json.Marshal(c)
		return string(b)
	}
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       model.AuditActionCouponChange,
		ResourceType: model.AuditResourceCoupon,
		ResourceID:   id,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    time.Now(),
	}); err != nil {
		return dbError(ctx, err)
	}
	return nil
}

type CouponPreviewOutput struct {
	Code              string `json:"code"`
	Type              string `json:"type"`
	Value             int64  `json:"value"`
	Discount          int64  `json:"discount"`
	DiscountFormatted string `json:"discount_formatted"`
	SubtotalAfter     int64  `json:"subtotal_after_discount"`
}

// 適用できるかだけ見る（使用回数は増やさない）
func (u *CouponUsecase) Preview(ctx context.Context, code string, subtotal int64) (CouponPreviewOutput, error) {
	if subtotal < 0 {
		return CouponPreviewOutput{}, errValidation("invalid subtotal")
	}

	res, err := u.validator.Validate(ctx, code, subtotal)
	if err != nil {
		return CouponPreviewOutput{}, couponError(ctx, err)
	}

	return CouponPreviewOutput{
		Code:              res.Code,
		Type:              string(res.Type),
		Value:             res.Value,
		Discount:          res.Discount,
		DiscountFormatted: money.Format(res.Discount),
		SubtotalAfter:     money.ApplyDiscount(subtotal, res.Discount),
	}, nil
}
