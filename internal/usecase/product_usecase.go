package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/money"
	repo "oliveshop/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	categoryRepo  repo.CategoryRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page         int
	Limit        int
	Q            string
	CategorySlug string
	MinPrice     *int64
	MaxPrice     *int64
	Sort         string
}

type ProductOutput struct {
	model.Product
	PriceFormatted string `json:"price_formatted"`
	InStock        bool   `json:"in_stock"`
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func toProductOutput(p model.Product) ProductOutput {
	if p.Images == nil {
		p.Images = []string{}
	}
	return ProductOutput{
		Product:        p,
		PriceFormatted: money.Format(p.Price),
		InStock:        p.Stock > 0,
	}
}

func (in ListProductsInput) validate() error {
	if in.Page < 1 {
		return errValidation("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return errValidation("invalid limit")
	}
	if len(in.Q) > 100 {
		return errValidation("q too long")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return errValidation("min_price must be >= 0")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return errValidation("max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return errValidation("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return errValidation("invalid sort")
	}
	return nil
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, true)
}

// 管理画面は非公開も含める
func (u *ProductUsecase) AdminListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, false)
}

func (u *ProductUsecase) list(ctx context.Context, in ListProductsInput, activeOnly bool) (ProductListOutput, error) {
	if err := in.validate(); err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:         in.Page,
		Limit:        in.Limit,
		Q:            strings.TrimSpace(in.Q),
		CategorySlug: strings.TrimSpace(in.CategorySlug),
		MinPrice:     in.MinPrice,
		MaxPrice:     in.MaxPrice,
		Sort:         in.Sort,
		ActiveOnly:   activeOnly,
	})
	if err != nil {
		return ProductListOutput{}, dbError(ctx, err)
	}

	outs := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		outs = append(outs, toProductOutput(p))
	}
	return ProductListOutput{
		Items: outs,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, errValidation("invalid product id")
	}
	p, err := u.productRepo.FindByID(ctx, productID)
	return u.publicDetail(ctx, p, err)
}

func (u *ProductUsecase) GetProductBySlug(ctx context.Context, slug string) (ProductOutput, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductOutput{}, errValidation("invalid slug")
	}
	p, err := u.productRepo.FindBySlug(ctx, slug)
	return u.publicDetail(ctx, p, err)
}

// 非公開は「存在しない」扱い
func (u *ProductUsecase) publicDetail(ctx context.Context, p model.Product, err error) (ProductOutput, error) {
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, errNotFound()
	}
	if err != nil {
		return ProductOutput{}, dbError(ctx, err)
	}
	if !p.IsActive {
		return ProductOutput{}, errNotFound()
	}
	return toProductOutput(p), nil
}

type AdminProductInput struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         int64    `json:"price"`
	Stock         int64    `json:"stock"`
	IsActive      bool     `json:"is_active"`
	CategoryID    int64    `json:"category_id"`
	SubcategoryID *int64   `json:"subcategory_id"`
	Images        []string `json:"images"`
}

func (in AdminProductInput) toModel() (model.Product, error) {
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Product{}, errValidation("title required")
	}
	if !slugPattern.MatchString(slug) {
		return model.Product{}, errValidation("invalid slug")
	}
	if in.Price < 0 {
		return model.Product{}, errValidation("price must be >= 0")
	}
	if in.Stock < 0 {
		return model.Product{}, errValidation("stock must be >= 0")
	}
	if in.CategoryID <= 0 {
		return model.Product{}, errValidation("category_id required")
	}

	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if !strings.HasPrefix(img, "https://") && !strings.HasPrefix(img, "http://") {
			return model.Product{}, errValidation("images must be URLs")
		}
		images = append(images, img)
	}

	return model.Product{
		Slug:          slug,
		Title:         title,
		Description:   in.Description,
		Price:         in.Price,
		Stock:         in.Stock,
		IsActive:      in.IsActive,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Images:        images,
	}, nil
}

func (u *ProductUsecase) ensureCategory(ctx context.Context, id int64) error {
	_, err := u.categoryRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return errValidation("category not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (ProductOutput, error) {
	if adminUserID <= 0 {
		return ProductOutput{}, errUnauthorized()
	}
	p, err := in.toModel()
	if err != nil {
		return ProductOutput{}, err
	}
	if err := u.ensureCategory(ctx, p.CategoryID); err != nil {
		return ProductOutput{}, err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	created, err := u.productRepo.Create(ctx, p)
	if errors.Is(err, repo.ErrConflict) {
		return ProductOutput{}, newError(KindConflict, "", "slug already exists")
	}
	if err != nil {
		return ProductOutput{}, dbError(ctx, err)
	}
	return toProductOutput(created), nil
}

// 在庫は在庫更新APIで変える（ここでは変えない）
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (ProductOutput, error) {
	if adminUserID <= 0 {
		return ProductOutput{}, errUnauthorized()
	}
	if productID <= 0 {
		return ProductOutput{}, errValidation("invalid product id")
	}
	p, err := in.toModel()
	if err != nil {
		return ProductOutput{}, err
	}
	if err := u.ensureCategory(ctx, p.CategoryID); err != nil {
		return ProductOutput{}, err
	}

	p.ID = productID
	p.UpdatedAt = time.Now()

	err = u.productRepo.Update(ctx, p)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ProductOutput{}, errNotFound()
	case errors.Is(err, repo.ErrConflict):
		return ProductOutput{}, newError(KindConflict, "", "slug already exists")
	case err != nil:
		return ProductOutput{}, dbError(ctx, err)
	}

	updated, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductOutput{}, dbError(ctx, err)
	}
	return toProductOutput(updated), nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return errValidation("invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}

func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return errValidation("invalid product id")
	}
	if newStock < 0 {
		return errValidation("stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return errValidation("reason required")
	}

	//在庫の更新と履歴は同じTxで（変更前の在庫が返る）
	before, err := u.inventoryRepo.SetStockWithAdjustment(ctx, adminUserID, productID, newStock, strings.TrimSpace(reason))
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return dbError(ctx, err)
	}

	//監査ログを作成（在庫更新）
	//「誰が」「何を」「どの対象に」「どう変えたか」を残す
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, before),
		AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
		CreatedAt:    time.Now(),
	}); err != nil {
		return dbError(ctx, err)
	}

	return nil
}

// カテゴリ一覧（サブカテゴリ込み）
func (u *ProductUsecase) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	list, err := u.categoryRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, dbError(ctx, err)
	}
	if list == nil {
		list = []model.Category{}
	}
	return list, nil
}

type CategoryInput struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

func (in CategoryInput) normalize() (string, string, error) {
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", errValidation("name required")
	}
	if !slugPattern.MatchString(slug) {
		return "", "", errValidation("invalid slug")
	}
	return slug, name, nil
}

func (u *ProductUsecase) AdminCreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	slug, name, err := in.normalize()
	if err != nil {
		return model.Category{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	c, err := u.categoryRepo.Create(ctx, model.Category{Slug: slug, Name: name, IsActive: active})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, newError(KindConflict, "", "slug already exists")
	}
	if err != nil {
		return model.Category{}, dbError(ctx, err)
	}
	return c, nil
}

func (u *ProductUsecase) AdminUpdateCategory(ctx context.Context, id int64, in CategoryInput) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, errValidation("invalid id")
	}
	slug, name, err := in.normalize()
	if err != nil {
		return model.Category{}, err
	}

	cur, err := u.categoryRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, errNotFound()
	}
	if err != nil {
		return model.Category{}, dbError(ctx, err)
	}
	cur.Slug, cur.Name = slug, name
	if in.IsActive != nil {
		cur.IsActive = *in.IsActive
	}

	err = u.categoryRepo.Update(ctx, cur)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return model.Category{}, errNotFound()
	case errors.Is(err, repo.ErrConflict):
		return model.Category{}, newError(KindConflict, "", "slug already exists")
	case err != nil:
		return model.Category{}, dbError(ctx, err)
	}
	return cur, nil
}

// 商品が残っているカテゴリは消せない
func (u *ProductUsecase) AdminDeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return errValidation("invalid id")
	}
	err := u.categoryRepo.Delete(ctx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errNotFound()
	case errors.Is(err, repo.ErrConflict):
		return newError(KindConflict, "", "category still has products")
	case err != nil:
		return dbError(ctx, err)
	}
	return nil
}

func (u *ProductUsecase) AdminCreateSubcategory(ctx context.Context, categoryID int64, in CategoryInput) (model.Subcategory, error) {
	if categoryID <= 0 {
		return model.Subcategory{}, errValidation("invalid category id")
	}
	slug, name, err := in.normalize()
	if err != nil {
		return model.Subcategory{}, err
	}
	if _, err := u.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Subcategory{}, errNotFound()
		}
		return model.Subcategory{}, dbError(ctx, err)
	}

	s, err := u.categoryRepo.CreateSubcategory(ctx, model.Subcategory{CategoryID: categoryID, Slug: slug, Name: name})
	if errors.Is(err, repo.ErrConflict) {
		return model.Subcategory{}, newError(KindConflict, "", "slug already exists")
	}
	if err != nil {
		return model.Subcategory{}, dbError(ctx, err)
	}
	return s, nil
}

func (u *ProductUsecase) AdminDeleteSubcategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return errValidation("invalid id")
	}
	err := u.categoryRepo.DeleteSubcategory(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}
