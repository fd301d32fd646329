package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type AdminOrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	auditRepo  repo.AuditLogRepository
	lifecycle  *OrderUsecase
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	auditRepo repo.AuditLogRepository,
	lifecycle *OrderUsecase,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		auditRepo:  auditRepo,
		lifecycle:  lifecycle,
	}
}

type AdminUpdateOrderStatusInput struct {
	Status string `json:"status"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderListOutput{}, errValidation("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, errValidation("invalid limit")
	}
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(strings.ToUpper(f.Status)); !ok {
			return OrderListOutput{}, errValidation("invalid status")
		}
		f.Status = strings.ToUpper(f.Status)
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return OrderListOutput{}, dbError(ctx, err)
	}

	outs, err := withItems(ctx, u.orderItems, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ステータス更新（在庫・クーポンには触らない）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return errUnauthorized()
	}
	if orderID <= 0 {
		return errValidation("invalid id")
	}

	next, ok := model.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !ok {
		return errValidation("invalid status")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return newError(KindNotFound, CodeOrderNotFound, "order not found")
		}
		if err != nil {
			return err
		}

		// すでに同じなら何もしない
		if o.Status == next {
			return nil
		}
		//PAID/FAILEDは決済結果でしか付けない
		if !o.Status.CanAdminTransitionTo(next) {
			return newError(KindConflict, CodeInvalidTransition,
				fmt.Sprintf("cannot change order from %s to %s", o.Status, next))
		}

		// 読んだ時点のstatusのままなら更新
		moved, err := r.Orders().TransitionStatus(ctx, orderID, o.Status, next)
		if err != nil {
			return err
		}
		if !moved {
			return newError(KindConflict, CodeInvalidTransition, "order status changed concurrently")
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(o.Status) + `"}`,
			AfterJSON:    `{"status":"` + string(next) + `"}`,
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		return txError(ctx, err)
	}
	return nil
}

type CleanupOutput struct {
	Deleted int64 `json:"deleted"`
}

// 期限切れPENDINGの手動掃除
func (u *AdminOrderUsecase) CleanupPending(ctx context.Context, actorAdminUserID int64, maxAge time.Duration) (CleanupOutput, error) {
	if actorAdminUserID <= 0 {
		return CleanupOutput{}, errUnauthorized()
	}
	if maxAge <= 0 {
		maxAge = u.lifecycle.cfg.PendingMaxAge
	}

	deleted, err := u.lifecycle.ExpirePendingOrders(ctx, maxAge)
	if err != nil {
		return CleanupOutput{}, dbError(ctx, err)
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionCleanupPending,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   0,
		BeforeJSON:   fmt.Sprintf(`{"max_age_seconds":%d}`, int64(maxAge/time.Second)),
		AfterJSON:    fmt.Sprintf(`{"deleted":%d}`, deleted),
		CreatedAt:    time.Now(),
	}); err != nil {
		return CleanupOutput{}, dbError(ctx, err)
	}

	zctx.From(ctx).Info("Manual pending cleanup",
		zap.Int64("admin_id", actorAdminUserID),
		zap.Int64("deleted", deleted),
	)
	return CleanupOutput{Deleted: deleted}, nil
}

// 期間パラメータ（空ならnil）
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
