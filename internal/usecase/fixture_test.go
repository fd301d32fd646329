package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oliveshop/internal/domain/coupon"
	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/shipping"
	"oliveshop/internal/usecase"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db       *memDB
	provider *ProviderMock
	now      time.Time

	carts       *usecase.CartUsecase
	orders      *usecase.OrderUsecase
	payments    *usecase.PaymentUsecase
	adminOrders *usecase.AdminOrderUsecase
	coupons     *usecase.CouponUsecase
	shipping    *usecase.ShippingUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{db: newMemDB(), provider: &ProviderMock{}, now: baseTime}
	clock := func() time.Time { return f.now }

	settings := shipping.NewSettingsService(memShipping{f.db}, shipping.DefaultSettings)
	calc := shipping.NewCalculator(settings)
	validator := coupon.NewValidatorWithClock(memCoupons{f.db}, clock)

	f.carts = usecase.NewCartUsecase(memTx{f.db}, memCarts{f.db}, memCartItems{f.db}, memProducts{f.db}, memUsers{f.db}, calc)
	f.orders = usecase.NewOrderUsecase(usecase.OrderDeps{
		Tx:         memTx{f.db},
		Carts:      memCarts{f.db},
		CartItems:  memCartItems{f.db},
		Products:   memProducts{f.db},
		Orders:     memOrders{f.db},
		OrderItems: memOrderItems{f.db},
		Addresses:  memAddresses{f.db},
		Users:      memUsers{f.db},
		Coupons:    validator,
		Shipping:   calc,
		Provider:   f.provider,
	}, usecase.OrderConfig{
		CallbackURL:    "https://api.example.com/payment/callback",
		PaymentTimeout: time.Second,
		PendingMaxAge:  30 * time.Minute,
	}).WithClock(clock)
	f.payments = usecase.NewPaymentUsecase(memOrders{f.db}, f.provider, f.orders, time.Second)
	f.adminOrders = usecase.NewAdminOrderUsecase(memTx{f.db}, memOrders{f.db}, memOrderItems{f.db}, memAudit{f.db}, f.orders)
	f.coupons = usecase.NewCouponUsecase(memCoupons{f.db}, memAudit{f.db}, validator)
	f.shipping = usecase.NewShippingUsecase(settings, calc, memUsers{f.db}, memAudit{f.db})

	t.Cleanup(func() { f.provider.AssertExpectations(t) })
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) customer(tier model.LoyaltyTier) (model.User, model.Address) {
	u := f.db.addUser(model.User{
		Name:        "Ayşe Yılmaz",
		Email:       "ayse@example.com",
		LoyaltyTier: tier,
		IsActive:    true,
	})
	a := f.db.addAddress(model.Address{
		UserID:        u.ID,
		RecipientName: "Ayşe Yılmaz",
		Phone:         "05321234567",
		Line1:         "Atatürk Cd. No:5",
		City:          "İzmir",
		District:      "Karşıyaka",
		Country:       model.AddressCountry,
	})
	return u, a
}

func (f *fixture) oliveOil(price, stock int64) model.Product {
	return f.db.addProduct(model.Product{
		Slug:       "sizma-zeytinyagi-1l",
		Title:      "Sızma Zeytinyağı 1L",
		Price:      price,
		Stock:      stock,
		IsActive:   true,
		CategoryID: 1,
	})
}

func (f *fixture) soap(price, stock int64) model.Product {
	return f.db.addProduct(model.Product{
		Slug:       "zeytinyagli-sabun",
		Title:      "Zeytinyağlı Sabun",
		Price:      price,
		Stock:      stock,
		IsActive:   true,
		CategoryID: 1,
	})
}

func (f *fixture) percentCoupon(code string, pct int64, limit *int64) model.Coupon {
	return f.db.addCoupon(model.Coupon{
		Code:       code,
		Type:       model.CouponPercentage,
		Value:      pct,
		UsageLimit: limit,
		StartsAt:   baseTime.Add(-24 * time.Hour),
		EndsAt:     baseTime.Add(30 * 24 * time.Hour),
		IsActive:   true,
	})
}

func (f *fixture) addToCart(t *testing.T, owner model.CartOwner, productID, qty int64) {
	t.Helper()
	_, err := f.carts.AddItem(t.Context(), owner, productID, qty)
	require.NoError(t, err)
}

func assertKind(t *testing.T, err error, kind usecase.ErrorKind, code string) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, kind, he.Kind)
	if code != "" {
		assert.Equal(t, code, he.Code)
	}
}

func ptr[T any](v T) *T { return &v }
