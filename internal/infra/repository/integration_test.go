//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/infra/db"
	repo "oliveshop/internal/repository"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "shop",
				"POSTGRES_PASSWORD": "shop",
				"POSTGRES_DB":       "shop",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = pg.Terminate(context.Background()) }()

	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=shop password=shop dbname=shop sslmode=disable", host, port.Port())
	testDB, err = db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(ctx, testDB); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	return m.Run()
}

func seedProduct(t *testing.T, stock int64) model.Product {
	t.Helper()
	ctx := context.Background()

	cat := model.Category{Slug: fmt.Sprintf("cat-%d", time.Now().UnixNano()), Name: "Zeytinyağı", IsActive: true}
	require.NoError(t, testDB.WithContext(ctx).Create(&cat).Error)

	p, err := NewProductGormRepository(testDB).Create(ctx, model.Product{
		Slug:       fmt.Sprintf("sizma-%d", time.Now().UnixNano()),
		Title:      "Sızma Zeytinyağı 1L",
		Price:      45000,
		Stock:      stock,
		IsActive:   true,
		CategoryID: cat.ID,
		Images:     []string{"https://cdn.example/1.jpg"},
	})
	require.NoError(t, err)
	return p
}

func TestCartItem_AddWithinStock(t *testing.T) {
	ctx := context.Background()
	p := seedProduct(t, 3)

	cart, err := NewCartGormRepository(testDB).GetOrCreate(ctx, model.GuestOwner("guest-add"))
	require.NoError(t, err)

	items := NewCartItemGormRepository(testDB)

	ok, err := items.AddWithinStock(ctx, cart.ID, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = items.AddWithinStock(ctx, cart.ID, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "2+2 exceeds stock 3")

	ok, err = items.AddWithinStock(ctx, cart.ID, p.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := items.ListByCartID(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].Quantity)
}

func TestCart_GetOrCreateIsSingleton(t *testing.T) {
	ctx := context.Background()
	carts := NewCartGormRepository(testDB)

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := carts.GetOrCreate(ctx, model.UserOwner(4242))
			assert.NoError(t, err)
			ids[i] = c.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestInventory_ConcurrentDecreaseNeverOversells(t *testing.T) {
	ctx := context.Background()
	p := seedProduct(t, 5)
	inv := NewInventoryGormRepository(testDB)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := inv.DecreaseStockIfEnough(ctx, p.ID, 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	got, err := NewProductGormRepository(testDB).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)
}

func newPendingOrder(t *testing.T, createdAt time.Time) int64 {
	t.Helper()
	id, err := NewOrderGormRepository(testDB).Create(context.Background(), model.Order{
		GuestEmail:       "guest@example.com",
		Status:           model.OrderStatusPending,
		PaymentStatus:    model.PaymentStatusPending,
		PaymentReference: fmt.Sprintf("ref-%d", time.Now().UnixNano()),
		Subtotal:         1000,
		Total:            1000,
		ShippingAddress:  model.AddressSnapshot{City: "İzmir", Country: model.AddressCountry},
		CreatedAt:        createdAt,
	})
	require.NoError(t, err)
	return id
}

func TestOrder_ClaimPendingOnce(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderGormRepository(testDB)
	id := newPendingOrder(t, time.Now())

	ok, err := orders.ClaimPending(ctx, id, model.OrderStatusPaid, model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orders.ClaimPending(ctx, id, model.OrderStatusFailed, model.PaymentStatusFailed)
	require.NoError(t, err)
	assert.False(t, ok)

	o, err := orders.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, o.Status)
}

func TestOrder_MovePendingCartSkipsSettled(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderGormRepository(testDB)
	from, to := time.Now().UnixNano(), time.Now().UnixNano()+1

	pending := newPendingOrder(t, time.Now())
	settled := newPendingOrder(t, time.Now())
	for _, id := range []int64{pending, settled} {
		require.NoError(t, testDB.Model(&model.Order{}).Where("id = ?", id).Update("cart_id", from).Error)
	}
	_, err := orders.ClaimPending(ctx, settled, model.OrderStatusPaid, model.PaymentStatusPaid)
	require.NoError(t, err)

	n, err := orders.MovePendingCart(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	o, err := orders.FindByID(ctx, pending)
	require.NoError(t, err)
	require.NotNil(t, o.CartID)
	assert.Equal(t, to, *o.CartID)

	o, err = orders.FindByID(ctx, settled)
	require.NoError(t, err)
	assert.Equal(t, from, *o.CartID)
}

func TestOrder_SweepExpiredPending(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	oldID := newPendingOrder(t, now.Add(-31*time.Minute))
	freshID := newPendingOrder(t, now.Add(-29*time.Minute))

	require.NoError(t, NewOrderItemGormRepository(testDB).CreateBulk(ctx, oldID, []model.OrderItem{
		{ProductID: 1, ProductTitleSnapshot: "x", UnitPriceSnapshot: 1000, Quantity: 1},
	}))

	var deleted int64
	err := NewTxManagerGorm(testDB).WithinTx(ctx, func(r repo.TxRepos) error {
		ids, err := r.Orders().LockExpiredPending(ctx, now.Add(-30*time.Minute))
		if err != nil {
			return err
		}
		deleted, err = r.Orders().DeletePending(ctx, ids)
		return err
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	orders := NewOrderGormRepository(testDB)
	_, err = orders.FindByID(ctx, oldID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = orders.FindByID(ctx, freshID)
	assert.NoError(t, err)

	items, err := NewOrderItemGormRepository(testDB).ListByOrderID(ctx, oldID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOrderItem_ListByOrderIDs(t *testing.T) {
	ctx := context.Background()
	p := seedProduct(t, 10)
	a := newPendingOrder(t, time.Now())
	b := newPendingOrder(t, time.Now())
	empty := newPendingOrder(t, time.Now())

	items := NewOrderItemGormRepository(testDB)
	require.NoError(t, items.CreateBulk(ctx, a, []model.OrderItem{
		{ProductID: p.ID, ProductTitleSnapshot: p.Title, UnitPriceSnapshot: p.Price, Quantity: 1},
		{ProductID: p.ID, ProductTitleSnapshot: p.Title, UnitPriceSnapshot: p.Price, Quantity: 2},
	}))
	require.NoError(t, items.CreateBulk(ctx, b, []model.OrderItem{
		{ProductID: p.ID, ProductTitleSnapshot: p.Title, UnitPriceSnapshot: p.Price, Quantity: 3},
	}))

	byOrder, err := items.ListByOrderIDs(ctx, []int64{a, b, empty})
	require.NoError(t, err)
	assert.Len(t, byOrder[a], 2)
	assert.Len(t, byOrder[b], 1)
	assert.Empty(t, byOrder[empty])
}

func TestCoupon_IncrementUsageRespectsLimit(t *testing.T) {
	ctx := context.Background()
	coupons := NewCouponGormRepository(testDB)
	limit := int64(1)

	c, err := coupons.Create(ctx, model.Coupon{
		Code:       "TEKSEFER",
		Type:       model.CouponFixed,
		Value:      500,
		UsageLimit: &limit,
		StartsAt:   time.Now().Add(-time.Hour),
		EndsAt:     time.Now().Add(time.Hour),
		IsActive:   true,
	})
	require.NoError(t, err)

	_, err = coupons.Create(ctx, model.Coupon{Code: "TEKSEFER", Type: model.CouponFixed, StartsAt: time.Now(), EndsAt: time.Now()})
	assert.ErrorIs(t, err, repo.ErrConflict)

	ok, err := coupons.IncrementUsage(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = coupons.IncrementUsage(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShippingSettings_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	settings := NewShippingSettingsGormRepository(testDB)

	require.NoError(t, settings.CreateIfAbsent(ctx, model.ShippingSettings{BaseFee: 5000, FreeShippingThreshold: 100000, IsActive: true}))
	require.NoError(t, settings.CreateIfAbsent(ctx, model.ShippingSettings{BaseFee: 1, FreeShippingThreshold: 1, IsActive: false}))

	s, ok, err := settings.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5000), s.BaseFee)
	assert.True(t, s.IsActive)
}

func seedUser(t *testing.T) int64 {
	t.Helper()
	u := model.User{
		Name:         "Ayşe",
		Email:        fmt.Sprintf("ayse-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "x",
	}
	require.NoError(t, testDB.WithContext(context.Background()).Create(&u).Error)
	return u.ID
}

func countDefaults(t *testing.T, userID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, testDB.Model(&model.Address{}).
		Where("user_id = ? AND is_default", userID).
		Count(&n).Error)
	return n
}

func TestAddress_FirstIsDefaultAndSwitch(t *testing.T) {
	ctx := context.Background()
	addrs := NewAddressGormRepository(testDB)
	userID := seedUser(t)

	a1, err := addrs.Create(ctx, model.Address{UserID: userID, RecipientName: "Ayşe", Phone: "5550000000", Line1: "Kordon 1", City: "İzmir", District: "Konak"})
	require.NoError(t, err)
	assert.True(t, a1.IsDefault)

	a2, err := addrs.Create(ctx, model.Address{UserID: userID, RecipientName: "Ayşe", Phone: "5550000000", Line1: "Bağdat 2", City: "İstanbul", District: "Kadıköy"})
	require.NoError(t, err)
	assert.False(t, a2.IsDefault)

	require.NoError(t, addrs.SetDefault(ctx, userID, a2.ID))

	list, err := addrs.ListByUserID(ctx, userID)
	require.NoError(t, err)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
			assert.Equal(t, a2.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	_, err = addrs.FindByIDForUser(ctx, a1.ID, userID+1)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAddress_ConcurrentSetDefaultKeepsOne(t *testing.T) {
	ctx := context.Background()
	addrs := NewAddressGormRepository(testDB)
	userID := seedUser(t)

	a, err := addrs.Create(ctx, model.Address{UserID: userID, RecipientName: "Ayşe", Phone: "5550000000", Line1: "Kordon 1", City: "İzmir", District: "Konak"})
	require.NoError(t, err)
	b, err := addrs.Create(ctx, model.Address{UserID: userID, RecipientName: "Ayşe", Phone: "5550000000", Line1: "Bağdat 2", City: "İstanbul", District: "Kadıköy"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := a.ID
		if i%2 == 1 {
			id = b.ID
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, addrs.SetDefault(ctx, userID, id))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), countDefaults(t, userID))
}

func TestAddress_ConcurrentFirstCreateKeepsOne(t *testing.T) {
	ctx := context.Background()
	addrs := NewAddressGormRepository(testDB)
	userID := seedUser(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := addrs.Create(ctx, model.Address{UserID: userID, RecipientName: "Ayşe", Phone: "5550000000", Line1: fmt.Sprintf("Kordon %d", i), City: "İzmir", District: "Konak"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := addrs.ListByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 8)
	assert.Equal(t, int64(1), countDefaults(t, userID))
}

func TestAddress_IndexRejectsSecondDefault(t *testing.T) {
	ctx := context.Background()
	userID := seedUser(t)

	_, err := NewAddressGormRepository(testDB).Create(ctx, model.Address{UserID: userID, RecipientName: "Ayşe", Phone: "5550000000", Line1: "Kordon 1", City: "İzmir", District: "Konak"})
	require.NoError(t, err)

	//リポジトリを通さない書き込みもインデックスで止まる
	raw := model.Address{UserID: userID, RecipientName: "Ayşe", Phone: "5550000000", Line1: "Kordon 2", City: "İzmir", District: "Konak", Country: model.AddressCountry, IsDefault: true}
	assert.Error(t, testDB.WithContext(ctx).Create(&raw).Error)
}
