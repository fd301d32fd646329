package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

var errInvalidOwner = errors.New("cart owner must be exactly one of user or guest")

// 持ち主で絞る
func byOwner(owner model.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.UserID != nil {
			return db.Where("user_id = ?", *owner.UserID)
		}
		return db.Where("guest_id = ?", *owner.GuestID)
	}
}

// 持ち主のカートを取得
func (r *CartGormRepository) FindByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	return r.find(r.db.WithContext(ctx), owner)
}

// 持ち主のカートを行ロック付きで取得
func (r *CartGormRepository) FindByOwnerForUpdate(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), owner)
}

func (r *CartGormRepository) find(db *gorm.DB, owner model.CartOwner) (model.Cart, error) {
	if !owner.Valid() {
		return model.Cart{}, errInvalidOwner
	}

	var cart model.Cart
	err := db.Scopes(byOwner(owner)).First(&cart).Error
	if isNotFound(err) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// カートを取得し、無ければ作成
// 同時作成は一意制約で1つに寄せる
func (r *CartGormRepository) GetOrCreate(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if !owner.Valid() {
		return model.Cart{}, errInvalidOwner
	}

	cart, err := r.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, err
	}

	// 無ければ作る
	now := time.Now()
	newCart := model.Cart{
		UserID:    owner.UserID,
		GuestID:   owner.GuestID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&newCart).Error; err != nil {
		return model.Cart{}, err
	}

	return r.FindByOwner(ctx, owner)
}

// 指定カートの明細を全削除
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}

// カートごと削除
func (r *CartGormRepository) Delete(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Cart{}, cartID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
