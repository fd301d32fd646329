package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/payment"
	repo "oliveshop/internal/repository"
)

type PaymentUsecase struct {
	orders    repo.OrderRepository
	provider  payment.Provider
	lifecycle *OrderUsecase
	timeout   time.Duration
}

func NewPaymentUsecase(orders repo.OrderRepository, provider payment.Provider, lifecycle *OrderUsecase, timeout time.Duration) *PaymentUsecase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaymentUsecase{
		orders:    orders,
		provider:  provider,
		lifecycle: lifecycle,
		timeout:   timeout,
	}
}

type CallbackOutput struct {
	OrderID int64
	Status  model.OrderStatus
}

// 決済から戻ってきたトークンで注文を確定する
// 2回目以降のコールバックは確定済みのstatusを返すだけ
func (u *PaymentUsecase) HandleCallback(ctx context.Context, token string) (CallbackOutput, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return CallbackOutput{}, errValidation("token is required")
	}

	o, err := u.orders.FindByPaymentToken(ctx, token)
	if errors.Is(err, repo.ErrNotFound) {
		return CallbackOutput{}, newError(KindNotFound, CodeOrderNotFound, "order not found")
	}
	if err != nil {
		return CallbackOutput{}, dbError(ctx, err)
	}

	lg := zctx.From(ctx).With(zap.Int64("order_id", o.ID))

	if o.Status != model.OrderStatusPending {
		lg.Info("Duplicate payment callback", zap.String("status", string(o.Status)))
		return CallbackOutput{OrderID: o.ID, Status: o.Status}, nil
	}

	verifyCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	res, err := u.provider.Verify(verifyCtx, token)
	if err != nil {
		//注文はPENDINGのまま（再試行か掃除に任せる）
		lg.Warn("Payment verify failed", zap.Error(err))
		return CallbackOutput{}, newError(KindExternal, CodePaymentVerifyFailed, "payment verification is temporarily unavailable")
	}

	//別の注文の結果が返ってきたら受け付けない
	if res.ConversationID != o.PaymentReference {
		lg.Warn("Payment conversation mismatch",
			zap.String("expected", o.PaymentReference),
			zap.String("got", res.ConversationID),
		)
		return CallbackOutput{}, newError(KindNotFound, CodeOrderNotFound, "order not found")
	}

	status, err := u.lifecycle.CompleteOrder(ctx, o.ID, res)
	if err != nil {
		return CallbackOutput{}, err
	}
	if !res.Succeeded() {
		lg.Info("Payment declined", zap.String("error_code", res.ErrorCode))
	}
	return CallbackOutput{OrderID: o.ID, Status: status}, nil
}
