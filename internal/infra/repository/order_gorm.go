package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.findOne(ctx, "id = ?", orderID)
}

// 決済セッションのトークンから注文を探す
func (r *OrderGormRepository) FindByPaymentToken(ctx context.Context, token string) (model.Order, error) {
	return r.findOne(ctx, "payment_token = ?", token)
}

func (r *OrderGormRepository) findOne(ctx context.Context, query string, arg any) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where(query, arg).First(&o).Error
	if isNotFound(err) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

// 明細はOrderItemsで別に保存する
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) SetPaymentToken(ctx context.Context, orderID int64, token string) error {
	return r.updateColumns(ctx, orderID, map[string]any{"payment_token": token})
}

func (r *OrderGormRepository) SetPaymentID(ctx context.Context, orderID int64, paymentID string) error {
	return r.updateColumns(ctx, orderID, map[string]any{"payment_id": paymentID})
}

func (r *OrderGormRepository) MovePendingCart(ctx context.Context, fromCartID, toCartID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("cart_id = ? AND status = ?", fromCartID, model.OrderStatusPending).
		Updates(map[string]any{"cart_id": toCartID, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *OrderGormRepository) updateColumns(ctx context.Context, orderID int64, cols map[string]any) error {
	cols["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(cols)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// PENDINGのときだけ確定する
// 0件なら他のリクエストが先に確定済み
func (r *OrderGormRepository) ClaimPending(ctx context.Context, orderID int64, status model.OrderStatus, payment model.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Updates(map[string]any{
			"status":         status,
			"payment_status": payment,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// 現在のstatusがfromのときだけ更新
func (r *OrderGormRepository) TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	cols := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	//未払いのままキャンセルなら決済もキャンセル扱い
	if from == model.OrderStatusPending && to == model.OrderStatusCancelled {
		cols["payment_status"] = model.PaymentStatusCancelled
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(cols)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// cutoffより古いPENDINGをロック（他がロック中なら飛ばす）
func (r *OrderGormRepository) LockExpiredPending(ctx context.Context, cutoff time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND created_at < ?", model.OrderStatusPending, cutoff).
		Order("id asc").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// PENDINGのままのものだけ明細→注文の順で削除
func (r *OrderGormRepository) DeletePending(ctx context.Context, orderIDs []int64) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}

	pending := r.db.Model(&model.Order{}).
		Select("id").
		Where("id IN ? AND status = ?", orderIDs, model.OrderStatusPending)

	if err := r.db.WithContext(ctx).
		Where("order_id IN (?)", pending).
		Delete(&model.OrderItem{}).Error; err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", orderIDs, model.OrderStatusPending).
		Delete(&model.Order{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}
