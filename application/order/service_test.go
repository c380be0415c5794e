package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appcart "marketplace/application/cart"
	apporder "marketplace/application/order"
	"marketplace/domain/address"
	"marketplace/domain/catalog"
	"marketplace/domain/coupon"
	"marketplace/domain/order"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/mysql"
	"marketplace/infrastructure/persistence/mysql/po"
	"marketplace/infrastructure/persistence/mysql/testdb"
	"marketplace/infrastructure/persistence/retry"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pricing = order.PricingPolicy{
	FreeShippingThreshold: decimal.RequireFromString("50"),
	FlatShippingCost:      decimal.RequireFromString("5.99"),
	TaxRate:               decimal.RequireFromString("0.08"),
}

func usd(v string) shared.Money {
	return shared.NewMoney(decimal.RequireFromString(v), "USD")
}

type fixture struct {
	t         *testing.T
	db        *gorm.DB
	products  *mysql.ProductRepository
	coupons   *mysql.CouponRepository
	orders    *mysql.OrderRepository
	addresses *mysql.AddressRepository
	carts     *appcart.Service
	uows      *mysql.UnitOfWorkFactory
	svc       *apporder.CheckoutService
}

type fixtureOption func(*apporder.Dependencies, *retry.Config)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	db := testdb.New(t)
	f := &fixture{
		t:         t,
		db:        db,
		products:  mysql.NewProductRepository(db),
		coupons:   mysql.NewCouponRepository(db),
		orders:    mysql.NewOrderRepository(db),
		addresses: mysql.NewAddressRepository(db),
		uows:      mysql.NewUnitOfWorkFactory(db),
	}
	f.carts = appcart.NewService(mysql.NewCartRepository(db), f.products, f.uows, "USD")

	deps := apporder.Dependencies{
		Orders:    f.orders,
		Products:  f.products,
		Coupons:   f.coupons,
		Carts:     f.carts,
		Addresses: apporder.NewAddressLookup(f.addresses),
		Validator: coupon.NewValidator(f.coupons),
		Lookup:    apporder.NewCouponLookup(f.coupons),
		UoW:       f.uows,
	}
	retryCfg := retry.Config{Enabled: false}
	for _, opt := range opts {
		opt(&deps, &retryCfg)
	}
	f.svc = apporder.NewCheckoutService(deps, pricing, "USD", retryCfg)
	return f
}

func (f *fixture) exec(fn func(ctx context.Context) error) {
	f.t.Helper()
	require.NoError(f.t, shared.Execute(context.Background(), f.uows.New(), fn))
}

func (f *fixture) product(name, price string, stock int) *catalog.Product {
	f.t.Helper()
	p, err := catalog.NewProduct("seller-1", name, usd(price), stock)
	require.NoError(f.t, err)
	f.exec(func(ctx context.Context) error { return f.products.Add(ctx, p) })
	return p
}

func (f *fixture) address(userID string) *address.Address {
	f.t.Helper()
	a, err := address.NewAddress(userID, address.Snapshot{
		RecipientName: "Grace Hopper",
		Line1:         "1 Navy Way",
		City:          "Arlington",
		State:         "VA",
		PostalCode:    "22202",
		Country:       "US",
	})
	require.NoError(f.t, err)
	f.exec(func(ctx context.Context) error { return f.addresses.Add(ctx, a) })
	return a
}

func (f *fixture) coupon(terms coupon.Terms) *coupon.Coupon {
	f.t.Helper()
	c, err := coupon.NewCoupon(terms)
	require.NoError(f.t, err)
	f.exec(func(ctx context.Context) error { return f.coupons.Add(ctx, c) })
	return c
}

func (f *fixture) addToCart(userID string, p *catalog.Product, qty int) {
	f.t.Helper()
	_, err := f.carts.AddItem(context.Background(), userID, appcart.AddItemRequest{ProductID: p.ID(), Quantity: qty})
	require.NoError(f.t, err)
}

func (f *fixture) stock(p *catalog.Product) int {
	f.t.Helper()
	got, err := f.products.GetByID(context.Background(), p.ID())
	require.NoError(f.t, err)
	return got.StockQuantity()
}

func (f *fixture) cartLines(userID string) int {
	f.t.Helper()
	c, err := f.carts.GetCartByUser(context.Background(), userID)
	require.NoError(f.t, err)
	if c == nil {
		return 0
	}
	return len(c.Items())
}

func (f *fixture) count(model any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) outboxTypes(since int64) []string {
	f.t.Helper()
	var rows []po.OutboxMessagePO
	require.NoError(f.t, f.db.Order("created_at ASC, id ASC").Offset(int(since)).Find(&rows).Error)
	types := make([]string, len(rows))
	for i, r := range rows {
		types[i] = r.Type
	}
	return types
}

// Scenario A
func TestCheckoutWithoutCoupon(t *testing.T) {
	f := newFixture(t)
	const user = "user-a"
	a := f.product("Keyboard", "20.00", 5)
	b := f.product("Mouse", "10.00", 1)
	addr := f.address(user)
	f.addToCart(user, a, 2)
	f.addToCart(user, b, 1)
	outboxBefore := f.count(&po.OutboxMessagePO{})

	resp, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID()})
	require.NoError(t, err)

	assert.Equal(t, string(order.StatusPending), resp.Status)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, "50", resp.SubTotal.Amount.String())
	assert.True(t, resp.ShippingCost.Amount.IsZero(), "free shipping at the threshold")
	assert.Equal(t, "4", resp.Tax.Amount.String())
	assert.Equal(t, "54", resp.TotalAmount.Amount.String())
	assert.Nil(t, resp.CouponDiscount)
	assert.Equal(t, "Grace Hopper", resp.ShippingAddress.RecipientName)

	assert.Equal(t, 3, f.stock(a))
	assert.Equal(t, 0, f.stock(b))
	assert.Zero(t, f.cartLines(user))

	types := f.outboxTypes(outboxBefore)
	assert.ElementsMatch(t, []string{"product.stock_reduced", "product.stock_reduced", "order.created", "cart.cleared"}, types)
}

// Scenario B
func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	const user = "user-b"
	a := f.product("Keyboard", "20.00", 5)
	b := f.product("Mouse", "10.00", 1)
	addr := f.address(user)
	f.addToCart(user, a, 2)
	f.addToCart(user, b, 1)

	// Someone else bought the last mouse after it was put in the cart.
	f.exec(func(ctx context.Context) error {
		p, err := f.products.GetByID(ctx, b.ID())
		if err != nil {
			return err
		}
		if err := p.ReduceStock(1); err != nil {
			return err
		}
		return f.products.Update(ctx, p)
	})
	outboxBefore := f.count(&po.OutboxMessagePO{})

	_, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID()})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
	assert.Contains(t, err.Error(), "insufficient stock")

	assert.Equal(t, 5, f.stock(a))
	assert.Equal(t, 0, f.stock(b))
	assert.Equal(t, 2, f.cartLines(user))
	assert.Zero(t, f.count(&po.OrderPO{}))
	assert.Equal(t, outboxBefore, f.count(&po.OutboxMessagePO{}))
}

// Scenario C
func TestCheckoutWithPercentageCoupon(t *testing.T) {
	f := newFixture(t)
	const user = "user-c"
	p := f.product("Monitor", "50.00", 10)
	addr := f.address(user)
	c := f.coupon(coupon.Terms{Code: "save10", DiscountType: coupon.DiscountPercentage, Value: decimal.NewFromInt(10)})
	f.addToCart(user, p, 2)
	outboxBefore := f.count(&po.OutboxMessagePO{})

	resp, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID(), CouponCode: "SAVE10"})
	require.NoError(t, err)

	require.NotNil(t, resp.CouponDiscount)
	assert.Equal(t, "10", resp.CouponDiscount.Amount.String())
	assert.Equal(t, "SAVE10", resp.CouponCode)
	assert.Equal(t, "100", resp.SubTotal.Amount.String())
	assert.Equal(t, "8", resp.Tax.Amount.String())
	assert.Equal(t, "98", resp.TotalAmount.Amount.String(), "90 after discount, free shipping, 8 tax")

	stored, err := f.coupons.GetByID(context.Background(), c.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount())

	var usages []po.CouponUsagePO
	require.NoError(t, f.db.Find(&usages).Error)
	require.Len(t, usages, 1)
	assert.Equal(t, resp.ID, usages[0].OrderID)
	assert.Equal(t, user, usages[0].UserID)
	assert.Equal(t, "10", usages[0].DiscountAmount.String())

	types := f.outboxTypes(outboxBefore)
	assert.ElementsMatch(t, []string{
		"product.stock_reduced", "order.created", "order.coupon_applied", "coupon.redeemed", "cart.cleared",
	}, types)
}

func TestCheckoutIneligibleCouponGivesNoDiscount(t *testing.T) {
	f := newFixture(t)
	const user = "user-e"
	p := f.product("Cable", "10.00", 10)
	addr := f.address(user)
	expired := f.coupon(coupon.Terms{
		Code:         "OLD",
		DiscountType: coupon.DiscountFixed,
		Value:        decimal.NewFromInt(5),
		ValidFrom:    time.Now().Add(-48 * time.Hour),
		ValidTo:      time.Now().Add(-24 * time.Hour),
	})
	f.addToCart(user, p, 1)

	resp, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID(), CouponCode: "old"})
	require.NoError(t, err)
	assert.Nil(t, resp.CouponDiscount)
	assert.Empty(t, resp.CouponCode)
	assert.Equal(t, "16.79", resp.TotalAmount.Amount.StringFixed(2), "10 + 5.99 shipping + 0.80 tax")

	stored, err := f.coupons.GetByID(context.Background(), expired.ID())
	require.NoError(t, err)
	assert.Zero(t, stored.UsageCount())
	assert.Zero(t, f.count(&po.CouponUsagePO{}))
}

type brokenValidator struct{}

func (brokenValidator) ValidateCoupon(context.Context, string, decimal.Decimal, string, []string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("coupon service exploded")
}

func TestCheckoutBrokenCouponLookupAbortsEverything(t *testing.T) {
	f := newFixture(t, func(d *apporder.Dependencies, _ *retry.Config) {
		d.Validator = brokenValidator{}
	})
	const user = "user-f"
	p := f.product("Chair", "80.00", 3)
	addr := f.address(user)
	f.addToCart(user, p, 1)

	_, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID(), CouponCode: "ANY"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
	assert.Contains(t, err.Error(), "coupon")

	assert.Equal(t, 3, f.stock(p))
	assert.Equal(t, 1, f.cartLines(user))
	assert.Zero(t, f.count(&po.OrderPO{}))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	addr := f.address("user-g")

	_, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: "user-g", AddressID: addr.ID()})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
	assert.Contains(t, err.Error(), "cart is empty")

	// A cart that exists but was emptied behaves the same.
	p := f.product("Pen", "1.00", 10)
	f.addToCart("user-g", p, 1)
	_, err = f.carts.RemoveItem(context.Background(), "user-g", p.ID())
	require.NoError(t, err)

	_, err = f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: "user-g", AddressID: addr.ID()})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
}

func TestCheckoutForeignAddressIsNotFound(t *testing.T) {
	f := newFixture(t)
	p := f.product("Pen", "1.00", 10)
	other := f.address("someone-else")
	f.addToCart("user-h", p, 1)

	_, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: "user-h", AddressID: other.ID()})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, 10, f.stock(p))
	assert.Equal(t, 1, f.cartLines("user-h"))
}

// Scenario D, with attempts serialized by the database.
func TestCheckoutLastUnitGoesToOneBuyer(t *testing.T) {
	f := newFixture(t)
	p := f.product("Signed Poster", "30.00", 1)
	addr1 := f.address("buyer-1")
	addr2 := f.address("buyer-2")
	f.addToCart("buyer-1", p, 1)
	f.addToCart("buyer-2", p, 1)

	_, err1 := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: "buyer-1", AddressID: addr1.ID()})
	_, err2 := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: "buyer-2", AddressID: addr2.ID()})

	require.NoError(t, err1)
	require.Error(t, err2)
	assert.True(t, errors.Is(err2, shared.ErrBusinessRule) || errors.Is(err2, shared.ErrConcurrencyConflict))
	assert.Equal(t, 0, f.stock(p))
	assert.Equal(t, int64(1), f.count(&po.OrderPO{}))
	assert.Equal(t, 1, f.cartLines("buyer-2"))
}

// Scenario D with both buyers checking out at the same time.
func TestCheckoutLastUnitConcurrentBuyers(t *testing.T) {
	f := newFixture(t)
	p := f.product("Signed Poster", "30.00", 1)
	buyers := []string{"buyer-a", "buyer-b"}
	addrs := make([]*address.Address, len(buyers))
	for i, b := range buyers {
		addrs[i] = f.address(b)
		f.addToCart(b, p, 1)
	}

	start := make(chan struct{})
	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i, b := range buyers {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addrs[i].ID()})
		}(i, b)
	}
	close(start)
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		assert.True(t, errors.Is(err, shared.ErrBusinessRule) || errors.Is(err, shared.ErrConcurrencyConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, f.stock(p))
	assert.Equal(t, int64(1), f.count(&po.OrderPO{}))
	assert.Equal(t, 1, f.cartLines("buyer-a")+f.cartLines("buyer-b"), "only the loser keeps its cart line")
}

// racingProducts bumps the product version inside the checkout transaction
// right after the product is read, the way a concurrent committed writer would.
type racingProducts struct {
	catalog.Repository
	races int
}

func (r *racingProducts) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, err := r.Repository.GetByID(ctx, id)
	if err != nil || r.races == 0 {
		return p, err
	}
	r.races--
	if err := persistence.TxFromContext(ctx).Exec("UPDATE products SET version = version + 1 WHERE id = ?", id).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func TestCheckoutConcurrencyConflict(t *testing.T) {
	var racer *racingProducts
	f := newFixture(t, func(d *apporder.Dependencies, _ *retry.Config) {
		racer = &racingProducts{Repository: d.Products}
		d.Products = racer
	})
	p := f.product("Headphones", "40.00", 2)
	addr := f.address("user-i")
	f.addToCart("user-i", p, 1)
	racer.races = 1

	_, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: "user-i", AddressID: addr.ID()})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.True(t, shared.IsRetryable(err))

	assert.Equal(t, 2, f.stock(p))
	assert.Equal(t, 1, f.cartLines("user-i"))
	assert.Zero(t, f.count(&po.OrderPO{}))
}

func TestCheckoutRetriesConflictFromScratch(t *testing.T) {
	var racer *racingProducts
	f := newFixture(t, func(d *apporder.Dependencies, r *retry.Config) {
		racer = &racingProducts{Repository: d.Products}
		d.Products = racer
		*r = retry.Config{Enabled: true, MaxAttempts: 3, RetryOnConcurrentModification: true}
	})
	p := f.product("Headphones", "40.00", 2)
	addr := f.address("user-j")
	f.addToCart("user-j", p, 1)
	racer.races = 1

	resp, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: "user-j", AddressID: addr.ID()})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, 1, f.stock(p), "stock is reduced exactly once")
	assert.Equal(t, int64(1), f.count(&po.OrderPO{}))
}

func TestCouponLedgerStaysConsistent(t *testing.T) {
	f := newFixture(t)
	p := f.product("Book", "25.00", 10)
	c := f.coupon(coupon.Terms{
		Code:         "ONCE",
		DiscountType: coupon.DiscountFixed,
		Value:        decimal.NewFromInt(5),
		UsageLimit:   1,
	})

	for _, user := range []string{"reader-1", "reader-2"} {
		addr := f.address(user)
		f.addToCart(user, p, 1)
		_, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID(), CouponCode: "ONCE"})
		require.NoError(t, err)
	}

	// A failing attempt with the coupon leaves the ledger alone.
	addr := f.address("reader-3")
	_, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: "reader-3", AddressID: addr.ID(), CouponCode: "ONCE"})
	require.Error(t, err)

	stored, err := f.coupons.GetByID(context.Background(), c.ID())
	require.NoError(t, err)
	usages, err := f.coupons.CountUsages(context.Background(), c.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount())
	assert.Equal(t, stored.UsageCount(), usages)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	const user = "user-k"
	a := f.product("Keyboard", "20.00", 5)
	b := f.product("Mouse", "10.00", 1)
	addr := f.address(user)
	f.addToCart(user, a, 2)
	f.addToCart(user, b, 1)

	placed, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID()})
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(context.Background(), placed.ID, apporder.CancelOrderRequest{UserID: "intruder"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	cancelled, err := f.svc.CancelOrder(context.Background(), placed.ID, apporder.CancelOrderRequest{UserID: user, Reason: "changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, string(order.StatusCancelled), cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.Equal(t, 1, cancelled.Version)
	assert.Equal(t, 5, f.stock(a))
	assert.Equal(t, 1, f.stock(b))

	_, err = f.svc.CancelOrder(context.Background(), placed.ID, apporder.CancelOrderRequest{UserID: user})
	assert.ErrorIs(t, err, shared.ErrBusinessRule, "cancelled orders cannot be cancelled again")
}

func TestOrderStatusTransitionsAndQueries(t *testing.T) {
	f := newFixture(t)
	const user = "user-l"
	p := f.product("Lamp", "60.00", 5)
	addr := f.address(user)
	f.addToCart(user, p, 1)

	placed, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID()})
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(context.Background(), placed.ID, apporder.UpdateOrderStatusRequest{Status: "SHIPPED"})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)

	for _, status := range []string{"CONFIRMED", "SHIPPED", "DELIVERED"} {
		resp, err := f.svc.UpdateOrderStatus(context.Background(), placed.ID, apporder.UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, resp.Status)
	}

	list, err := f.svc.ListUserOrders(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, placed.ID, list[0].ID)

	_, err = f.svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSearchUserOrders(t *testing.T) {
	f := newFixture(t)
	const user = "user-s"
	p := f.product("Chair", "80.00", 10)
	addr := f.address(user)

	place := func() string {
		f.addToCart(user, p, 1)
		resp, err := f.svc.CreateOrderFromCart(context.Background(), apporder.CheckoutRequest{UserID: user, AddressID: addr.ID()})
		require.NoError(t, err)
		return resp.ID
	}
	kept := place()
	cancelled := place()
	_, err := f.svc.CancelOrder(context.Background(), cancelled, apporder.CancelOrderRequest{UserID: user, Reason: "changed mind"})
	require.NoError(t, err)

	ids := func(q apporder.ListOrdersQuery) []string {
		t.Helper()
		list, err := f.svc.SearchUserOrders(context.Background(), user, q)
		require.NoError(t, err)
		out := make([]string, len(list))
		for i, o := range list {
			out[i] = o.ID
		}
		return out
	}

	assert.ElementsMatch(t, []string{kept, cancelled}, ids(apporder.ListOrdersQuery{}))
	assert.Equal(t, []string{cancelled}, ids(apporder.ListOrdersQuery{Status: "CANCELLED"}))
	assert.Equal(t, []string{kept}, ids(apporder.ListOrdersQuery{Cancellable: true}))
	assert.Equal(t, []string{kept}, ids(apporder.ListOrdersQuery{Status: "PENDING", Cancellable: true}))
	assert.Empty(t, ids(apporder.ListOrdersQuery{Status: "DELIVERED"}))

	others, err := f.svc.SearchUserOrders(context.Background(), "someone-else", apporder.ListOrdersQuery{})
	require.NoError(t, err)
	assert.Empty(t, others)
}
