package repository

import (
	"context"

	"gorm.io/gorm"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type categoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) repo.CategoryRepository {
	return &categoryGormRepository{db: db}
}

// サブカテゴリ込みの一覧
func (r *categoryGormRepository) List(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	q := r.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("name asc")
		}).
		Order("name asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var list []model.Category
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *categoryGormRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Preload("Subcategories").First(&c, id).Error
	if isNotFound(err) {
		return model.Category{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *categoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := r.db.WithContext(ctx).Omit("Subcategories").Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Category{}, repo.ErrConflict
		}
		return model.Category{}, err
	}
	return c, nil
}

func (r *categoryGormRepository) Update(ctx context.Context, c model.Category) error {
	res := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ?", c.ID).
		Select("slug", "name", "is_active").
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

// 商品が紐づいているカテゴリは消せない
func (r *categoryGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return repo.ErrConflict
		}

		res := tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

func (r *categoryGormRepository) CreateSubcategory(ctx context.Context, s model.Subcategory) (model.Subcategory, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Subcategory{}, repo.ErrConflict
		}
		return model.Subcategory{}, err
	}
	return s, nil
}

func (r *categoryGormRepository) DeleteSubcategory(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Subcategory{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
