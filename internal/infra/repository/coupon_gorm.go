package repository

import (
	"context"

	"gorm.io/gorm"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type couponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) repo.CouponRepository {
	return &couponGormRepository{db: db}
}

// 見つからないときは(false, nil)
func (r *couponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, bool, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if isNotFound(err) {
		return model.Coupon{}, false, nil
	}
	if err != nil {
		return model.Coupon{}, false, err
	}
	return c, true, nil
}

func (r *couponGormRepository) FindByID(ctx context.Context, id int64) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).First(&c, id).Error
	if isNotFound(err) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

func (r *couponGormRepository) List(ctx context.Context) ([]model.Coupon, error) {
	var list []model.Coupon
	if err := r.db.WithContext(ctx).Order("id desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *couponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Coupon{}, repo.ErrConflict
		}
		return model.Coupon{}, err
	}
	return c, nil
}

// used_countは引き当てでしか変えない
func (r *couponGormRepository) Update(ctx context.Context, c model.Coupon) error {
	res := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ?", c.ID).
		Select(
			"code",
			"type",
			"value",
			"min_order_amount",
			"usage_limit",
			"starts_at",
			"ends_at",
			"is_active",
		).
		Updates(&c)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return repo.ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *couponGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Coupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 上限に達していなければ+1
func (r *couponGormRepository) IncrementUsage(ctx context.Context, couponID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
