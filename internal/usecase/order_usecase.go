package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"oliveshop/internal/domain/coupon"
	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/money"
	"oliveshop/internal/domain/payment"
	"oliveshop/internal/domain/shipping"
	repo "oliveshop/internal/repository"
)

// 注文まわりの設定
type OrderConfig struct {
	// 決済後に戻ってくるURL
	CallbackURL string
	// 決済プロバイダ呼び出しの上限時間
	PaymentTimeout time.Duration
	// これより古いPENDINGは掃除対象
	PendingMaxAge time.Duration
}

type OrderUsecase struct {
	tx         repo.TransactionManager
	carts      repo.CartRepository
	cartItems  repo.CartItemRepository
	products   repo.ProductRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	addresses  repo.AddressRepository
	users      repo.UserRepository
	coupons    *coupon.Validator
	shipping   *shipping.Calculator
	provider   payment.Provider
	cfg        OrderConfig
	now        func() time.Time
}

// 依存が多いのでまとめて渡す
type OrderDeps struct {
	Tx         repo.TransactionManager
	Carts      repo.CartRepository
	CartItems  repo.CartItemRepository
	Products   repo.ProductRepository
	Orders     repo.OrderRepository
	OrderItems repo.OrderItemRepository
	Addresses  repo.AddressRepository
	Users      repo.UserRepository
	Coupons    *coupon.Validator
	Shipping   *shipping.Calculator
	Provider   payment.Provider
}

func NewOrderUsecase(d OrderDeps, cfg OrderConfig) *OrderUsecase {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	if cfg.PendingMaxAge <= 0 {
		cfg.PendingMaxAge = 30 * time.Minute
	}
	return &OrderUsecase{
		tx:         d.Tx,
		carts:      d.Carts,
		cartItems:  d.CartItems,
		products:   d.Products,
		orders:     d.Orders,
		orderItems: d.OrderItems,
		addresses:  d.Addresses,
		users:      d.Users,
		coupons:    d.Coupons,
		shipping:   d.Shipping,
		provider:   d.Provider,
		cfg:        cfg,
		now:        time.Now,
	}
}

// テスト用に時計を差し替える
func (u *OrderUsecase) WithClock(now func() time.Time) *OrderUsecase {
	u.now = now
	return u
}

type CheckoutInput struct {
	Owner model.CartOwner
	// 会員は登録済み住所を使う
	AddressID int64
	// ゲストは住所とメールを直接渡す
	GuestAddress *AddressInput
	GuestEmail   string
	CouponCode   string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type OrderOutput struct {
	ID              int64                 `json:"id"`
	UserID          *int64                `json:"user_id,omitempty"`
	GuestEmail      string                `json:"guest_email,omitempty"`
	Status          string                `json:"status"`
	PaymentStatus   string                `json:"payment_status"`
	CouponCode      string                `json:"coupon_code,omitempty"`
	Subtotal        int64                 `json:"subtotal"`
	Discount        int64                 `json:"discount"`
	ShippingFee     int64                 `json:"shipping_fee"`
	Total           int64                 `json:"total"`
	TotalFormatted  string                `json:"total_formatted"`
	ShippingAddress model.AddressSnapshot `json:"shipping_address"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
}

type CheckoutOutput struct {
	Order          OrderOutput `json:"order"`
	PaymentPageURL string      `json:"payment_page_url"`
	PaymentToken   string      `json:"payment_token"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// PENDING注文を作り、決済ページのURLを返す
// 在庫・クーポンはここでは減らさない（決済完了時に確定）
func (u *OrderUsecase) CreatePendingOrder(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	lg := zctx.From(ctx)

	if err := validOwner(in.Owner); err != nil {
		return CheckoutOutput{}, err
	}

	//古いPENDINGのついで掃除（失敗しても注文は続ける）
	if _, err := u.ExpirePendingOrders(ctx, u.cfg.PendingMaxAge); err != nil {
		lg.Warn("Opportunistic pending sweep failed", zap.Error(err))
	}

	snapshot, buyer, err := u.resolveShipping(ctx, in)
	if err != nil {
		return CheckoutOutput{}, err
	}

	//カート明細
	cart, err := u.carts.FindByOwner(ctx, in.Owner)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutOutput{}, newError(KindValidation, CodeEmptyCart, "cart is empty")
	}
	if err != nil {
		return CheckoutOutput{}, dbError(ctx, err)
	}
	cartItems, err := u.cartItems.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CheckoutOutput{}, dbError(ctx, err)
	}
	if len(cartItems) == 0 {
		return CheckoutOutput{}, newError(KindValidation, CodeEmptyCart, "cart is empty")
	}

	ids := make([]int64, 0, len(cartItems))
	for _, ci := range cartItems {
		ids = append(ids, ci.ProductID)
	}
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return CheckoutOutput{}, dbError(ctx, err)
	}

	//スナップショットと小計
	orderItems := make([]model.OrderItem, 0, len(cartItems))
	var subtotal int64
	for _, ci := range cartItems {
		p, ok := products[ci.ProductID]
		if !ok || !p.IsActive {
			return CheckoutOutput{}, newError(KindUnavailable, CodeProductUnavailable,
				fmt.Sprintf("product %d is not available", ci.ProductID))
		}
		if p.Stock < ci.Quantity {
			return CheckoutOutput{}, newError(KindUnavailable, CodeStockChanged,
				fmt.Sprintf("only %d left for %s", p.Stock, p.Title))
		}
		orderItems = append(orderItems, model.OrderItem{
			ProductID:            p.ID,
			ProductTitleSnapshot: p.Title,
			UnitPriceSnapshot:    p.Price,
			Quantity:             ci.Quantity,
		})
		subtotal += p.Price * ci.Quantity
	}

	//クーポン（検証だけ。引き当ては決済完了時）
	var applied *coupon.Result
	if strings.TrimSpace(in.CouponCode) != "" {
		res, err := u.coupons.Validate(ctx, in.CouponCode, subtotal)
		if err != nil {
			return CheckoutOutput{}, couponError(ctx, err)
		}
		applied = &res
	}

	tier, err := loyaltyTierOf(ctx, u.users, in.Owner)
	if err != nil {
		return CheckoutOutput{}, err
	}
	fee, err := u.shipping.Fee(ctx, subtotal, tier)
	if err != nil {
		return CheckoutOutput{}, dbError(ctx, err)
	}

	var discount int64
	if applied != nil {
		discount = applied.Discount
	}
	total := money.ApplyDiscount(subtotal, discount) + fee

	order := model.Order{
		UserID:           in.Owner.UserID,
		CartID:           &cart.ID,
		Status:           model.OrderStatusPending,
		PaymentStatus:    model.PaymentStatusPending,
		PaymentReference: uuid.NewString(),
		Subtotal:         subtotal,
		Discount:         discount,
		ShippingFee:      fee,
		Total:            total,
		ShippingAddress:  snapshot,
		CreatedAt:        u.now(),
		UpdatedAt:        u.now(),
	}
	if in.Owner.IsGuest() {
		order.GuestEmail = buyer.Email
	}
	if applied != nil {
		order.CouponID = &applied.CouponID
		order.CouponCode = applied.Code
	}

	//注文と明細は1つのTxで保存
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		id, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		return r.OrderItems().CreateBulk(ctx, id, orderItems)
	})
	if err != nil {
		return CheckoutOutput{}, txError(ctx, err)
	}

	lg = lg.With(zap.Int64("order_id", order.ID), zap.String("payment_reference", order.PaymentReference))

	//決済セッション作成（失敗しても注文はPENDINGのまま残す）
	basket := make([]payment.BasketItem, 0, len(orderItems)+1)
	for _, it := range orderItems {
		basket = append(basket, payment.BasketItem{
			ID:    strconv.FormatInt(it.ProductID, 10),
			Name:  it.ProductTitleSnapshot,
			Price: it.LineTotal(),
		})
	}
	if fee > 0 {
		basket = append(basket, payment.BasketItem{ID: "shipping", Name: "Kargo", Price: fee})
	}

	payCtx, cancel := context.WithTimeout(ctx, u.cfg.PaymentTimeout)
	defer cancel()
	session, err := u.provider.InitCheckout(payCtx, payment.CheckoutRequest{
		ConversationID: order.PaymentReference,
		Amount:         total,
		Currency:       money.Currency,
		Buyer:          buyer,
		Basket:         basket,
		CallbackURL:    u.cfg.CallbackURL,
	})
	if err != nil {
		lg.Warn("Payment init failed", zap.Error(err))
		return CheckoutOutput{}, newError(KindExternal, CodePaymentInitFailed, "payment service is temporarily unavailable")
	}

	if err := u.orders.SetPaymentToken(ctx, order.ID, session.Token); err != nil {
		return CheckoutOutput{}, dbError(ctx, err)
	}

	lg.Info("Pending order created", zap.Int64("total", total), zap.String("total_formatted", money.Format(total)))

	return CheckoutOutput{
		Order:          toOrderOutput(order, orderItems),
		PaymentPageURL: session.PaymentPageURL,
		PaymentToken:   session.Token,
	}, nil
}

// 配送先と購入者
func (u *OrderUsecase) resolveShipping(ctx context.Context, in CheckoutInput) (model.AddressSnapshot, payment.Buyer, error) {
	if in.Owner.IsGuest() {
		email := strings.TrimSpace(in.GuestEmail)
		if !strings.Contains(email, "@") {
			return model.AddressSnapshot{}, payment.Buyer{}, errValidation("guest_email is required")
		}
		if in.GuestAddress == nil {
			return model.AddressSnapshot{}, payment.Buyer{}, errValidation("shipping address is required")
		}
		addr, err := in.GuestAddress.normalize()
		if err != nil {
			return model.AddressSnapshot{}, payment.Buyer{}, err
		}
		snap := addr.toModel(0).Snapshot()
		return snap, payment.Buyer{
			ID:      "guest-" + *in.Owner.GuestID,
			Name:    snap.RecipientName,
			Email:   email,
			Phone:   snap.Phone,
			City:    snap.City,
			Address: snap.Line1,
		}, nil
	}

	userID := *in.Owner.UserID
	if in.AddressID <= 0 {
		return model.AddressSnapshot{}, payment.Buyer{}, errValidation("invalid address_id")
	}
	//他人の住所は「存在しない」扱い
	addr, err := u.addresses.FindByIDForUser(ctx, in.AddressID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.AddressSnapshot{}, payment.Buyer{}, errNotFound()
	}
	if err != nil {
		return model.AddressSnapshot{}, payment.Buyer{}, dbError(ctx, err)
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.AddressSnapshot{}, payment.Buyer{}, errUnauthorized()
	}
	if err != nil {
		return model.AddressSnapshot{}, payment.Buyer{}, dbError(ctx, err)
	}

	snap := addr.Snapshot()
	return snap, payment.Buyer{
		ID:      "user-" + strconv.FormatInt(userID, 10),
		Name:    user.Name,
		Email:   user.Email,
		Phone:   snap.Phone,
		City:    snap.City,
		Address: snap.Line1,
	}, nil
}

func couponError(ctx context.Context, err error) error {
	var ce *coupon.Error
	if errors.As(err, &ce) {
		return newError(KindUnavailable, string(ce.Reason), ce.Message)
	}
	return dbError(ctx, err)
}

// 決済結果で注文を確定する
// PENDINGでなければ何もせず現在のstatusを返す（二重コールバック対策）
func (u *OrderUsecase) CompleteOrder(ctx context.Context, orderID int64, res payment.Result) (model.OrderStatus, error) {
	lg := zctx.From(ctx).With(zap.Int64("order_id", orderID))

	next, nextPayment := model.OrderStatusPaid, model.PaymentStatusPaid
	if !res.Succeeded() {
		next, nextPayment = model.OrderStatusFailed, model.PaymentStatusFailed
	}

	var (
		final   model.OrderStatus
		claimed bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Orders().ClaimPending(ctx, orderID, next, nextPayment)
		if err != nil {
			return err
		}
		if !ok {
			o, err := r.Orders().FindByID(ctx, orderID)
			if errors.Is(err, repo.ErrNotFound) {
				return newError(KindNotFound, CodeOrderNotFound, "order not found")
			}
			if err != nil {
				return err
			}
			final = o.Status
			return nil
		}
		claimed = true
		final = next

		if next != model.OrderStatusPaid {
			return nil
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		//在庫を確定（足りなくても支払い済みなのでPAIDのまま、記録だけ残す）
		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			lg.Warn("Stock shortfall on paid order",
				zap.Int64("product_id", it.ProductID),
				zap.Int64("quantity", it.Quantity),
			)
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  0,
				Action:       model.AuditActionStockShortfall,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   orderID,
				BeforeJSON:   fmt.Sprintf(`{"product_id":%d}`, it.ProductID),
				AfterJSON:    fmt.Sprintf(`{"requested":%d}`, it.Quantity),
				CreatedAt:    u.now(),
			}); err != nil {
				return err
			}
		}

		//クーポンの引き当て（1注文1回）
		if o.CouponID != nil {
			ok, err := r.Coupons().IncrementUsage(ctx, *o.CouponID)
			if err != nil {
				return err
			}
			if !ok {
				lg.Warn("Coupon usage limit reached at redemption", zap.Int64("coupon_id", *o.CouponID))
			}
		}

		if o.CartID != nil {
			if err := r.Carts().Clear(ctx, *o.CartID); err != nil {
				return err
			}
		}

		if res.PaymentID != "" {
			if err := r.Orders().SetPaymentID(ctx, orderID, res.PaymentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", txError(ctx, err)
	}

	if claimed {
		lg.Info("Order completed", zap.String("status", string(final)))
	} else {
		lg.Info("Order already settled", zap.String("status", string(final)))
	}
	return final, nil
}

// maxAgeより古いPENDING注文を明細ごと削除する
// 完了処理中（ロック中）の注文は飛ばす
func (u *OrderUsecase) ExpirePendingOrders(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, goerrors.New("max age must be positive")
	}
	cutoff := u.now().Add(-maxAge)

	var deleted int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ids, err := r.Orders().LockExpiredPending(ctx, cutoff)
		if err != nil {
			return goerrors.Wrap(err, "lock expired orders")
		}
		if len(ids) == 0 {
			return nil
		}
		deleted, err = r.Orders().DeletePending(ctx, ids)
		if err != nil {
			return goerrors.Wrap(err, "delete expired orders")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		zctx.From(ctx).Info("Expired pending orders deleted",
			zap.Int64("count", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, errUnauthorized()
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, dbError(ctx, err)
	}

	outs, err := withItems(ctx, u.orderItems, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}, nil
}

// 一覧の明細はまとめて1回で取る
func withItems(ctx context.Context, orderItems repo.OrderItemRepository, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := orderItems.ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, dbError(ctx, err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, errValidation("invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, errNotFound()
	}
	if err != nil {
		return OrderOutput{}, dbError(ctx, err)
	}
	if o.UserID == nil || *o.UserID != userID {
		//他人の注文は「存在しない扱い」にする
		return OrderOutput{}, errNotFound()
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, dbError(ctx, err)
	}
	return toOrderOutput(o, items), nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Title:     it.ProductTitleSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		GuestEmail:      o.GuestEmail,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		CouponCode:      o.CouponCode,
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		ShippingFee:     o.ShippingFee,
		Total:           o.Total,
		TotalFormatted:  money.Format(o.Total),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
