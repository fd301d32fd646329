package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type addressGormRepository struct {
	db *gorm.DB
}

// DI
func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

// 住所を作成
func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	address.Country = model.AddressCountry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAddressOwner(tx, address.UserID); err != nil {
			return err
		}

		//最初の住所ならデフォルト
		var count int64
		if err := tx.Model(&model.Address{}).
			Where("user_id = ?", address.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		}

		if address.IsDefault && count > 0 {
			if err := tx.Model(&model.Address{}).
				Where("user_id = ? AND is_default = TRUE", address.UserID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}

		return tx.Create(&address).Error
	})
	if err != nil {
		return model.Address{}, err
	}
	return address, nil
}

// ユーザーの住所一覧を返す
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var list []model.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// 住所IDで1件取得（持ち主で絞る）
func (r *addressGormRepository) FindByIDForUser(ctx context.Context, addressID, userID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&a).Error
	if isNotFound(err) {
		return model.Address{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Address{}, err
	}
	return a, nil
}

// 住所を更新
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	result := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ? AND user_id = ?", address.ID, address.UserID).
		Select(
			"recipient_name",
			"phone",
			"line1",
			"line2",
			"city",
			"district",
			"postal_code",
		).
		Updates(address)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 住所を削除
func (r *addressGormRepository) Delete(ctx context.Context, addressID, userID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&model.Address{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// デフォルト住所を切り替える
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAddressOwner(tx, userID); err != nil {
			return err
		}

		//指定住所がこのユーザーのものか確認
		var count int64
		if err := tx.Model(&model.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return repo.ErrNotFound
		}

		//そのユーザーのdefaultを全て false
		if err := tx.Model(&model.Address{}).
			Where("user_id = ? AND is_default = TRUE", userID).
			Update("is_default", false).Error; err != nil {
			return err
		}

		//指定住所だけ true
		result := tx.Model(&model.Address{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Update("is_default", true)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// ユーザー行をロックして同じユーザーの住所更新を直列にする
func lockAddressOwner(tx *gorm.DB, userID int64) error {
	var u model.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&u, userID).Error
	if isNotFound(err) {
		return repo.ErrNotFound
	}
	return err
}
