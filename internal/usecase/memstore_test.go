package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/payment"
	repo "oliveshop/internal/repository"
)

// =====================
// in-memory DB（usecaseテスト共通）
// =====================

type memDB struct {
	mu     sync.Mutex
	nextID int64

	users      map[int64]model.User
	products   map[int64]model.Product
	categories map[int64]model.Category
	carts      map[int64]model.Cart
	cartItems  map[int64]map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64][]model.OrderItem
	coupons    map[int64]model.Coupon
	addresses  map[int64]model.Address
	audit      []model.AuditLog
	shipping   *model.ShippingSettings
}

func newMemDB() *memDB {
	return &memDB{
		users:      map[int64]model.User{},
		products:   map[int64]model.Product{},
		categories: map[int64]model.Category{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64]map[int64]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64][]model.OrderItem{},
		coupons:    map[int64]model.Coupon{},
		addresses:  map[int64]model.Address{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) auditActions() []model.AuditAction {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]model.AuditAction, 0, len(db.audit))
	for _, a := range db.audit {
		out = append(out, a.Action)
	}
	return out
}

// --- seed helpers ---

func (db *memDB) addUser(u model.User) model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u.ID = db.id()
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	if u.LoyaltyTier == "" {
		u.LoyaltyTier = model.TierStandard
	}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addProduct(p model.Product) model.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	p.ID = db.id()
	db.products[p.ID] = p
	return p
}

func (db *memDB) addCoupon(c model.Coupon) model.Coupon {
	db.mu.Lock()
	defer db.mu.Unlock()
	c.ID = db.id()
	db.coupons[c.ID] = c
	return c
}

func (db *memDB) addAddress(a model.Address) model.Address {
	db.mu.Lock()
	defer db.mu.Unlock()
	a.ID = db.id()
	db.addresses[a.ID] = a
	return a
}

func (db *memDB) product(id int64) model.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.products[id]
}

func (db *memDB) coupon(id int64) model.Coupon {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.coupons[id]
}

func (db *memDB) order(id int64) (model.Order, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	o, ok := db.orders[id]
	return o, ok
}

func (db *memDB) setOrderCreatedAt(id int64, at time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	o := db.orders[id]
	o.CreatedAt = at
	db.orders[id] = o
}

func (db *memDB) setOrderStatus(id int64, s model.OrderStatus) {
	db.mu.Lock()
	defer db.mu.Unlock()
	o := db.orders[id]
	o.Status = s
	db.orders[id] = o
}

func (db *memDB) setStock(productID, stock int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := db.products[productID]
	p.Stock = stock
	db.products[productID] = p
}

func (db *memDB) setActive(productID int64, active bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := db.products[productID]
	p.IsActive = active
	db.products[productID] = p
}

func (db *memDB) setCouponUsage(id, used int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := db.coupons[id]
	c.UsedCount = used
	db.coupons[id] = c
}

func (db *memDB) setCouponMinimum(id, amount int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := db.coupons[id]
	c.MinOrderAmount = &amount
	db.coupons[id] = c
}

// 持ち主のカート明細（productID -> 数量）
func (db *memDB) cartQuantities(owner model.CartOwner) map[int64]int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := map[int64]int64{}
	c, ok := db.findCart(owner)
	if !ok {
		return out
	}
	for pid, it := range db.cartItems[c.ID] {
		out[pid] = it.Quantity
	}
	return out
}

func (db *memDB) hasCart(owner model.CartOwner) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.findCart(owner)
	return ok
}

func (db *memDB) findCart(owner model.CartOwner) (model.Cart, bool) {
	for _, c := range db.carts {
		if owner.UserID != nil && c.UserID != nil && *c.UserID == *owner.UserID {
			return c, true
		}
		if owner.GuestID != nil && c.GuestID != nil && *c.GuestID == *owner.GuestID {
			return c, true
		}
	}
	return model.Cart{}, false
}

// =====================
// users
// =====================

type memUsers struct{ db *memDB }

var _ repo.UserRepository = memUsers{}

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email {
			return repo.ErrConflict
		}
	}
	user.ID = r.db.id()
	r.db.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(_ context.Context, userID int64) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r memUsers) UpdateLastLogin(_ context.Context, userID int64, at time.Time) error {
	return r.update(userID, func(u *model.User) { u.LastLoginAt = &at })
}

func (r memUsers) SetLoyaltyTier(_ context.Context, userID int64, tier model.LoyaltyTier) error {
	return r.update(userID, func(u *model.User) { u.LoyaltyTier = tier })
}

func (r memUsers) IncrementTokenVersion(_ context.Context, userID int64) error {
	return r.update(userID, func(u *model.User) { u.TokenVersion++ })
}

func (r memUsers) update(id int64, fn func(u *model.User)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	fn(&u)
	r.db.users[id] = u
	return nil
}

// =====================
// products / inventory / categories
// =====================

type memProducts struct{ db *memDB }

var _ repo.ProductRepository = memProducts{}

func (r memProducts) List(_ context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Product
	for _, p := range r.db.products {
		if q.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r memProducts) FindByID(_ context.Context, id int64) (model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindBySlug(_ context.Context, slug string) (model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (r memProducts) FindByIDs(_ context.Context, ids []int64) (map[int64]model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r memProducts) Create(_ context.Context, p model.Product) (model.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.products {
		if other.Slug == p.Slug {
			return model.Product{}, repo.ErrConflict
		}
	}
	p.ID = r.db.id()
	r.db.products[p.ID] = p
	return p, nil
}

func (r memProducts) Update(_ context.Context, p model.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	for _, other := range r.db.products {
		if other.ID != p.ID && other.Slug == p.Slug {
			return repo.ErrConflict
		}
	}
	r.db.products[p.ID] = p
	return nil
}

func (r memProducts) SoftDelete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.products, id)
	return nil
}

type memInventory struct{ db *memDB }

var _ repo.InventoryRepository = memInventory{}

func (r memInventory) SetStockWithAdjustment(_ context.Context, _ int64, productID int64, newStock int64, _ string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	before := p.Stock
	p.Stock = newStock
	r.db.products[productID] = p
	return before, nil
}

func (r memInventory) DecreaseStockIfEnough(_ context.Context, productID int64, qty int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.db.products[productID] = p
	return true, nil
}

type memCategories struct{ db *memDB }

var _ repo.CategoryRepository = memCategories{}

func (r memCategories) List(_ context.Context, activeOnly bool) ([]model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Category
	for _, c := range r.db.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r memCategories) FindByID(_ context.Context, id int64) (model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (r memCategories) Create(_ context.Context, c model.Category) (model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = r.db.id()
	r.db.categories[c.ID] = c
	return c, nil
}

func (r memCategories) Update(_ context.Context, c model.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.categories[c.ID]; !ok {
		return repo.ErrNotFound
	}
	r.db.categories[c.ID] = c
	return nil
}

func (r memCategories) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.products {
		if p.CategoryID == id {
			return repo.ErrConflict
		}
	}
	delete(r.db.categories, id)
	return nil
}

func (r memCategories) CreateSubcategory(_ context.Context, s model.Subcategory) (model.Subcategory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s.ID = r.db.id()
	return s, nil
}

func (r memCategories) DeleteSubcategory(_ context.Context, _ int64) error {
	return nil
}

// =====================
// carts
// =====================

type memCarts struct{ db *memDB }

var _ repo.CartRepository = memCarts{}

func (r memCarts) FindByOwner(_ context.Context, owner model.CartOwner) (model.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.findCart(owner)
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return c, nil
}

func (r memCarts) FindByOwnerForUpdate(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	return r.FindByOwner(ctx, owner)
}

func (r memCarts) GetOrCreate(_ context.Context, owner model.CartOwner) (model.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c, ok := r.db.findCart(owner); ok {
		return c, nil
	}
	c := model.Cart{ID: r.db.id(), UserID: owner.UserID, GuestID: owner.GuestID}
	r.db.carts[c.ID] = c
	r.db.cartItems[c.ID] = map[int64]model.CartItem{}
	return c, nil
}

func (r memCarts) Clear(_ context.Context, cartID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.cartItems[cartID] = map[int64]model.CartItem{}
	return nil
}

func (r memCarts) Delete(_ context.Context, cartID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.carts, cartID)
	delete(r.db.cartItems, cartID)
	return nil
}

type memCartItems struct{ db *memDB }

var _ repo.CartItemRepository = memCartItems{}

func (r memCartItems) ListByCartID(_ context.Context, cartID int64) ([]model.CartItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.CartItem, 0, len(r.db.cartItems[cartID]))
	for _, it := range r.db.cartItems[cartID] {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r memCartItems) AddWithinStock(_ context.Context, cartID int64, productID int64, qty int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := r.db.cartItems[cartID]
	cur := items[productID]
	if cur.Quantity+qty > r.db.products[productID].Stock {
		return false, nil
	}
	cur.CartID, cur.ProductID = cartID, productID
	cur.Quantity += qty
	items[productID] = cur
	return true, nil
}

func (r memCartItems) SetQuantity(_ context.Context, cartID int64, productID int64, qty int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	it, ok := r.db.cartItems[cartID][productID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	r.db.cartItems[cartID][productID] = it
	return nil
}

func (r memCartItems) Create(_ context.Context, item model.CartItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.cartItems[item.CartID] == nil {
		r.db.cartItems[item.CartID] = map[int64]model.CartItem{}
	}
	if _, ok := r.db.cartItems[item.CartID][item.ProductID]; ok {
		return repo.ErrConflict
	}
	r.db.cartItems[item.CartID][item.ProductID] = item
	return nil
}

func (r memCartItems) Delete(_ context.Context, cartID int64, productID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.cartItems[cartID][productID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.cartItems[cartID], productID)
	return nil
}

// =====================
// orders
// =====================

type memOrders struct{ db *memDB }

var _ repo.OrderRepository = memOrders{}

func (r memOrders) FindByID(_ context.Context, orderID int64) (model.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByPaymentToken(_ context.Context, token string) (model.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range r.db.orders {
		if o.PaymentToken != nil && *o.PaymentToken == token {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r memOrders) ListByUserID(_ context.Context, userID int64, _ int, _ int) ([]model.Order, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Order
	for _, o := range r.db.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r memOrders) Create(_ context.Context, order model.Order) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	order.ID = r.db.id()
	r.db.orders[order.ID] = order
	return order.ID, nil
}

func (r memOrders) SetPaymentToken(_ context.Context, orderID int64, token string) error {
	return r.update(orderID, func(o *model.Order) { o.PaymentToken = &token })
}

func (r memOrders) SetPaymentID(_ context.Context, orderID int64, paymentID string) error {
	return r.update(orderID, func(o *model.Order) { o.PaymentID = paymentID })
}

func (r memOrders) MovePendingCart(_ context.Context, fromCartID, toCartID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, o := range r.db.orders {
		if o.CartID == nil || *o.CartID != fromCartID || o.Status != model.OrderStatusPending {
			continue
		}
		o.CartID = &toCartID
		r.db.orders[id] = o
		n++
	}
	return n, nil
}

func (r memOrders) update(id int64, fn func(o *model.Order)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	fn(&o)
	r.db.orders[id] = o
	return nil
}

func (r memOrders) ClaimPending(_ context.Context, orderID int64, status model.OrderStatus, ps model.PaymentStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[orderID]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status, o.PaymentStatus = status, ps
	r.db.orders[orderID] = o
	return true, nil
}

func (r memOrders) TransitionStatus(_ context.Context, orderID int64, from, to model.OrderStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.db.orders[orderID] = o
	return true, nil
}

func (r memOrders) LockExpiredPending(_ context.Context, cutoff time.Time) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ids []int64
	for _, o := range r.db.orders {
		if o.Status == model.OrderStatusPending && o.CreatedAt.Before(cutoff) {
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

func (r memOrders) DeletePending(_ context.Context, orderIDs []int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, id := range orderIDs {
		if o, ok := r.db.orders[id]; ok && o.Status == model.OrderStatusPending {
			delete(r.db.orders, id)
			delete(r.db.orderItems, id)
			n++
		}
	}
	return n, nil
}

func (r memOrders) ListAdmin(_ context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Order
	for _, o := range r.db.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && (o.UserID == nil || *o.UserID != *f.UserID) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

type memOrderItems struct{ db *memDB }

var _ repo.OrderItemRepository = memOrderItems{}

func (r memOrderItems) CreateBulk(_ context.Context, orderID int64, items []model.OrderItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, it := range items {
		it.ID = r.db.id()
		it.OrderID = orderID
		r.db.orderItems[orderID] = append(r.db.orderItems[orderID], it)
	}
	return nil
}

func (r memOrderItems) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]model.OrderItem(nil), r.db.orderItems[orderID]...), nil
}

func (r memOrderItems) ListByOrderIDs(_ context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64][]model.OrderItem, len(orderIDs))
	for _, id := range orderIDs {
		if items, ok := r.db.orderItems[id]; ok {
			out[id] = append([]model.OrderItem(nil), items...)
		}
	}
	return out, nil
}

// =====================
// coupons / addresses / audit / shipping
// =====================

type memCoupons struct{ db *memDB }

var _ repo.CouponRepository = memCoupons{}

func (r memCoupons) FindByCode(_ context.Context, code string) (model.Coupon, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.coupons {
		if c.Code == code {
			return c, true, nil
		}
	}
	return model.Coupon{}, false, nil
}

func (r memCoupons) FindByID(_ context.Context, id int64) (model.Coupon, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.coupons[id]
	if !ok {
		return model.Coupon{}, repo.ErrNotFound
	}
	return c, nil
}

func (r memCoupons) List(_ context.Context) ([]model.Coupon, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Coupon
	for _, c := range r.db.coupons {
		out = append(out, c)
	}
	return out, nil
}

func (r memCoupons) Create(_ context.Context, c model.Coupon) (model.Coupon, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.coupons {
		if other.Code == c.Code {
			return model.Coupon{}, repo.ErrConflict
		}
	}
	c.ID = r.db.id()
	r.db.coupons[c.ID] = c
	return c, nil
}

func (r memCoupons) Update(_ context.Context, c model.Coupon) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.coupons[c.ID]
	if !ok {
		return repo.ErrNotFound
	}
	c.UsedCount = cur.UsedCount
	r.db.coupons[c.ID] = c
	return nil
}

func (r memCoupons) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.coupons[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.db.coupons, id)
	return nil
}

func (r memCoupons) IncrementUsage(_ context.Context, couponID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.coupons[couponID]
	if !ok {
		return false, nil
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false, nil
	}
	c.UsedCount++
	r.db.coupons[couponID] = c
	return true, nil
}

type memAddresses struct{ db *memDB }

var _ repo.AddressRepository = memAddresses{}

func (r memAddresses) Create(_ context.Context, a model.Address) (model.Address, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.ID = r.db.id()
	r.db.addresses[a.ID] = a
	return a, nil
}

func (r memAddresses) ListByUserID(_ context.Context, userID int64) ([]model.Address, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Address
	for _, a := range r.db.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAddresses) FindByIDForUser(_ context.Context, addressID, userID int64) (model.Address, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.addresses[addressID]
	if !ok || a.UserID != userID {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (r memAddresses) Update(_ context.Context, a model.Address) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.addresses[a.ID]
	if !ok || cur.UserID != a.UserID {
		return repo.ErrNotFound
	}
	r.db.addresses[a.ID] = a
	return nil
}

func (r memAddresses) Delete(_ context.Context, addressID, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.addresses[addressID]
	if !ok || a.UserID != userID {
		return repo.ErrNotFound
	}
	delete(r.db.addresses, addressID)
	return nil
}

func (r memAddresses) SetDefault(_ context.Context, userID, addressID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.addresses[addressID]
	if !ok || a.UserID != userID {
		return repo.ErrNotFound
	}
	for id, other := range r.db.addresses {
		if other.UserID == userID {
			other.IsDefault = id == addressID
			r.db.addresses[id] = other
		}
	}
	return nil
}

type memAudit struct{ db *memDB }

var _ repo.AuditLogRepository = memAudit{}

func (r memAudit) Create(_ context.Context, log model.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	log.ID = r.db.id()
	r.db.audit = append(r.db.audit, log)
	return nil
}

func (r memAudit) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.AuditLog
	for _, l := range r.db.audit {
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type memShipping struct{ db *memDB }

var _ repo.ShippingSettingsRepository = memShipping{}

func (r memShipping) Get(_ context.Context) (model.ShippingSettings, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.shipping == nil {
		return model.ShippingSettings{}, false, nil
	}
	return *r.db.shipping, true, nil
}

func (r memShipping) CreateIfAbsent(_ context.Context, s model.ShippingSettings) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.shipping == nil {
		r.db.shipping = &s
	}
	return nil
}

func (r memShipping) Save(_ context.Context, s model.ShippingSettings) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.shipping = &s
	return nil
}

// =====================
// TxManager（同じDBをそのまま渡す）
// =====================

type memTx struct{ db *memDB }

var _ repo.TransactionManager = memTx{}

func (t memTx) WithinTx(_ context.Context, fn func(r repo.TxRepos) error) error {
	return fn(memTxRepos(t))
}

type memTxRepos struct{ db *memDB }

func (r memTxRepos) Orders() repo.OrderRepository         { return memOrders(r) }
func (r memTxRepos) OrderItems() repo.OrderItemRepository { return memOrderItems(r) }
func (r memTxRepos) Carts() repo.CartRepository           { return memCarts(r) }
func (r memTxRepos) CartItems() repo.CartItemRepository   { return memCartItems(r) }
func (r memTxRepos) Inventory() repo.InventoryRepository  { return memInventory(r) }
func (r memTxRepos) Products() repo.ProductRepository     { return memProducts(r) }
func (r memTxRepos) Coupons() repo.CouponRepository       { return memCoupons(r) }
func (r memTxRepos) AuditLogs() repo.AuditLogRepository   { return memAudit(r) }

// =====================
// 決済プロバイダのモック
// =====================

type ProviderMock struct{ mock.Mock }

var _ payment.Provider = (*ProviderMock)(nil)

func (m *ProviderMock) InitCheckout(ctx context.Context, req payment.CheckoutRequest) (payment.Session, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(payment.Session)
	return s, args.Error(1)
}

func (m *ProviderMock) Verify(ctx context.Context, token string) (payment.Result, error) {
	args := m.Called(ctx, token)
	r, _ := args.Get(0).(payment.Result)
	return r, args.Error(1)
}
