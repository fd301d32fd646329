package usecase

import (
	"context"
	"errors"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/shipping"
	repo "oliveshop/internal/repository"
)

type CartUsecase struct {
	tx        repo.TransactionManager
	carts     repo.CartRepository
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
	users     repo.UserRepository
	shipping  *shipping.Calculator
}

// DI
func NewCartUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	cartItems repo.CartItemRepository,
	products repo.ProductRepository,
	users repo.UserRepository,
	shipping *shipping.Calculator,
) *CartUsecase {
	return &CartUsecase{
		tx:        tx,
		carts:     carts,
		cartItems: cartItems,
		products:  products,
		users:     users,
		shipping:  shipping,
	}
}

type CartLineOutput struct {
	ProductID int64  `json:"product_id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Image     string `json:"image,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
	Stock     int64  `json:"stock"`
	// 非公開・削除済みならfalse（小計に入れない）
	Available bool `json:"available"`
}

type ShippingPreview struct {
	Fee int64 `json:"fee"`
	// 送料無料まであといくら（既に無料ならnull）
	RemainingForFreeShipping *int64 `json:"remaining_for_free_shipping"`
}

type CartOutput struct {
	Items     []CartLineOutput `json:"items"`
	Subtotal  int64            `json:"subtotal"`
	ItemCount int64            `json:"item_count"`
	Shipping  ShippingPreview  `json:"shipping"`
}

func validOwner(owner model.CartOwner) error {
	if !owner.Valid() {
		return errValidation("guest session or login required")
	}
	return nil
}

// カートを返す（無ければ空）
func (u *CartUsecase) GetCart(ctx context.Context, owner model.CartOwner) (CartOutput, error) {
	if err := validOwner(owner); err != nil {
		return CartOutput{}, err
	}

	out := CartOutput{Items: []CartLineOutput{}}

	cart, err := u.carts.FindByOwner(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}

	items, err := u.cartItems.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}

	for _, it := range items {
		line := CartLineOutput{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := products[it.ProductID]; ok {
			line.Slug = p.Slug
			line.Title = p.Title
			line.UnitPrice = p.Price
			line.Stock = p.Stock
			line.Available = p.IsActive
			if len(p.Images) > 0 {
				line.Image = p.Images[0]
			}
		}
		if line.Available {
			line.LineTotal = line.UnitPrice * line.Quantity
			out.Subtotal += line.LineTotal
			out.ItemCount += line.Quantity
		}
		out.Items = append(out.Items, line)
	}

	if out.ItemCount > 0 {
		tier, err := loyaltyTierOf(ctx, u.users, owner)
		if err != nil {
			return CartOutput{}, err
		}
		q, err := u.shipping.Quote(ctx, out.Subtotal, tier)
		if err != nil {
			return CartOutput{}, dbError(ctx, err)
		}
		out.Shipping = ShippingPreview{Fee: q.Fee, RemainingForFreeShipping: q.Remaining}
	}

	return out, nil
}

// 商品を追加（同じ商品なら数量を足す）
func (u *CartUsecase) AddItem(ctx context.Context, owner model.CartOwner, productID int64, qty int64) (CartOutput, error) {
	if err := validOwner(owner); err != nil {
		return CartOutput{}, err
	}
	if productID <= 0 {
		return CartOutput{}, errValidation("invalid product_id")
	}
	if qty < 1 {
		return CartOutput{}, errValidation("quantity must be >= 1")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
		return CartOutput{}, newError(KindUnavailable, CodeProductUnavailable, "product is not available")
	}
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}

	cart, err := u.carts.GetOrCreate(ctx, owner)
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}

	//在庫を超えるなら入れない
	ok, err := u.cartItems.AddWithinStock(ctx, cart.ID, productID, qty)
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}
	if !ok {
		return CartOutput{}, newError(KindUnavailable, CodeInsufficientStock, "insufficient stock")
	}

	return u.GetCart(ctx, owner)
}

// 数量を変更（0以下なら削除）
func (u *CartUsecase) UpdateQuantity(ctx context.Context, owner model.CartOwner, productID int64, qty int64) (CartOutput, error) {
	if err := validOwner(owner); err != nil {
		return CartOutput{}, err
	}
	if productID <= 0 {
		return CartOutput{}, errValidation("invalid product_id")
	}
	if qty <= 0 {
		return u.RemoveItem(ctx, owner, productID)
	}

	cart, err := u.carts.FindByOwner(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return CartOutput{}, errNotFound()
	}
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
		return CartOutput{}, newError(KindUnavailable, CodeProductUnavailable, "product is not available")
	}
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}
	if qty > p.Stock {
		return CartOutput{}, newError(KindUnavailable, CodeInsufficientStock, "insufficient stock")
	}

	if err := u.cartItems.SetQuantity(ctx, cart.ID, productID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartOutput{}, errNotFound()
		}
		return CartOutput{}, dbError(ctx, err)
	}

	return u.GetCart(ctx, owner)
}

// 明細を削除
func (u *CartUsecase) RemoveItem(ctx context.Context, owner model.CartOwner, productID int64) (CartOutput, error) {
	if err := validOwner(owner); err != nil {
		return CartOutput{}, err
	}

	cart, err := u.carts.FindByOwner(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return CartOutput{}, errNotFound()
	}
	if err != nil {
		return CartOutput{}, dbError(ctx, err)
	}

	if err := u.cartItems.Delete(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartOutput{}, errNotFound()
		}
		return CartOutput{}, dbError(ctx, err)
	}

	return u.GetCart(ctx, owner)
}

// カートを空にする
func (u *CartUsecase) Clear(ctx context.Context, owner model.CartOwner) error {
	if err := validOwner(owner); err != nil {
		return err
	}

	cart, err := u.carts.FindByOwner(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dbError(ctx, err)
	}

	if err := u.carts.Clear(ctx, cart.ID); err != nil {
		return dbError(ctx, err)
	}
	return nil
}

// ゲストのカートを会員のカートに移す（ログイン時）
// 両方のカートをロックして1つのTxで行う
func (u *CartUsecase) MergeGuestIntoUser(ctx context.Context, guestID string, userID int64) error {
	if guestID == "" || userID <= 0 {
		return errValidation("invalid merge target")
	}

	var merged int
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		guestCart, err := r.Carts().FindByOwnerForUpdate(ctx, model.GuestOwner(guestID))
		if errors.Is(err, repo.ErrNotFound) {
			//ゲストカートが無いなら何もしない
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := r.Carts().GetOrCreate(ctx, model.UserOwner(userID)); err != nil {
			return err
		}
		userCart, err := r.Carts().FindByOwnerForUpdate(ctx, model.UserOwner(userID))
		if err != nil {
			return err
		}

		guestItems, err := r.CartItems().ListByCartID(ctx, guestCart.ID)
		if err != nil {
			return err
		}
		userItems, err := r.CartItems().ListByCartID(ctx, userCart.ID)
		if err != nil {
			return err
		}
		have := make(map[int64]model.CartItem, len(userItems))
		for _, it := range userItems {
			have[it.ProductID] = it
		}

		ids := make([]int64, 0, len(guestItems))
		for _, it := range guestItems {
			ids = append(ids, it.ProductID)
		}
		products, err := r.Products().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		for _, gi := range guestItems {
			p, ok := products[gi.ProductID]
			if !ok || !p.IsActive {
				continue
			}

			if ui, ok := have[gi.ProductID]; ok {
				//合算して在庫で頭打ち
				qty := min(ui.Quantity+gi.Quantity, p.Stock)
				if qty <= ui.Quantity {
					continue
				}
				if err := r.CartItems().SetQuantity(ctx, userCart.ID, gi.ProductID, qty); err != nil {
					return err
				}
				merged++
				continue
			}

			qty := min(gi.Quantity, p.Stock)
			if qty < 1 {
				continue
			}
			if err := r.CartItems().Create(ctx, model.CartItem{
				CartID:    userCart.ID,
				ProductID: gi.ProductID,
				Quantity:  qty,
			}); err != nil {
				return err
			}
			merged++
		}

		//決済待ちの注文は会員カートを片付けるように付け替える
		if _, err := r.Orders().MovePendingCart(ctx, guestCart.ID, userCart.ID); err != nil {
			return err
		}

		//ゲストカートは明細ごと削除
		return r.Carts().Delete(ctx, guestCart.ID)
	})
	if err != nil {
		return txError(ctx, err)
	}

	if merged > 0 {
		zctx.From(ctx).Info("Merged guest cart",
			zap.Int64("user_id", userID),
			zap.Int("lines", merged),
		)
	}
	return nil
}

// 会員ランク（ゲストはSTANDARD）
func loyaltyTierOf(ctx context.Context, users repo.UserRepository, owner model.CartOwner) (model.LoyaltyTier, error) {
	if owner.UserID == nil {
		return model.TierStandard, nil
	}
	user, err := users.FindByID(ctx, *owner.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.TierStandard, nil
	}
	if err != nil {
		return "", dbError(ctx, err)
	}
	if !user.LoyaltyTier.Valid() {
		return model.TierStandard, nil
	}
	return user.LoyaltyTier, nil
}
