package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type shippingSettingsGormRepository struct {
	db *gorm.DB
}

func NewShippingSettingsGormRepository(db *gorm.DB) repo.ShippingSettingsRepository {
	return &shippingSettingsGormRepository{db: db}
}

func (r *shippingSettingsGormRepository) Get(ctx context.Context) (model.ShippingSettings, bool, error) {
	var s model.ShippingSettings
	err := r.db.WithContext(ctx).First(&s, model.ShippingSettingsID).Error
	if isNotFound(err) {
		return model.ShippingSettings{}, false, nil
	}
	if err != nil {
		return model.ShippingSettings{}, false, err
	}
	return s, true, nil
}

// 同時の初回読み込みでも1行にしかならない
func (r *shippingSettingsGormRepository) CreateIfAbsent(ctx context.Context, s model.ShippingSettings) error {
	s.ID = model.ShippingSettingsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&s).Error
}

func (r *shippingSettingsGormRepository) Save(ctx context.Context, s model.ShippingSettings) error {
	s.ID = model.ShippingSettingsID
	return r.db.WithContext(ctx).
		Select("id", "base_fee", "free_shipping_threshold", "is_active", "updated_at").
		Save(&s).Error
}
