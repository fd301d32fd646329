package repository

import (
	"context"

	"oliveshop/internal/domain/model"
)

type CategoryRepository interface {
	// サブカテゴリ込みで返す
	List(ctx context.Context, activeOnly bool) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error

	CreateSubcategory(ctx context.Context, s model.Subcategory) (model.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id int64) error
}
