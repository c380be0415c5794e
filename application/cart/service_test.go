package cart_test

import (
	"context"
	"testing"
	"time"

	appcart "marketplace/application/cart"
	"marketplace/domain/cart"
	"marketplace/domain/catalog"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/mysql"
	"marketplace/infrastructure/persistence/mysql/po"
	"marketplace/infrastructure/persistence/mysql/testdb"
	"marketplace/infrastructure/persistence/retry"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*appcart.Service, *mysql.UnitOfWorkFactory, *catalog.Product, *mysql.CartRepository) {
	t.Helper()
	db := testdb.New(t)
	products := mysql.NewProductRepository(db)
	carts := mysql.NewCartRepository(db)
	uows := mysql.NewUnitOfWorkFactory(db)

	p, err := catalog.NewProduct("seller-1", "Notebook", shared.NewMoney(decimal.RequireFromString("3.50"), "USD"), 100)
	require.NoError(t, err)
	require.NoError(t, shared.Execute(context.Background(), uows.New(), func(ctx context.Context) error {
		return products.Add(ctx, p)
	}))

	return appcart.NewService(carts, products, uows, "USD"), uows, p, carts
}

func TestGetCartByUserWithoutCart(t *testing.T) {
	svc, _, _, _ := setup(t)

	c, err := svc.GetCartByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, c)

	resp, err := svc.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "0.00", resp.Subtotal)
	assert.Equal(t, "USD", resp.Currency)
}

func TestAddItemCreatesThenMerges(t *testing.T) {
	svc, _, p, _ := setup(t)
	ctx := context.Background()

	resp, err := svc.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	resp, err = svc.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, "10.50", resp.Subtotal)
	assert.Equal(t, "3.50", resp.Items[0].PriceSnapshot)

	_, err = svc.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, _, p, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 1})
	require.NoError(t, err)

	resp, err := svc.RemoveItem(ctx, "user-1", p.ID())
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	_, err = svc.RemoveItem(ctx, "user-1", p.ID())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClearCartStandaloneAndInsideTransaction(t *testing.T) {
	svc, uows, p, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, svc.ClearCart(ctx, "user-1"))

	c, err := svc.GetCartByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	// Inside a caller's transaction the change waits for the caller.
	_, err = svc.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 4})
	require.NoError(t, err)

	uow := uows.New()
	txCtx, err := uow.BeginTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.ClearCart(txCtx, "user-1"))
	require.NoError(t, uow.RollbackTransaction(txCtx))

	c, err = svc.GetCartByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, c.Items(), 1, "rolled back clear leaves the cart intact")

	// Clearing a user without a cart is a no-op.
	require.NoError(t, svc.ClearCart(ctx, "nobody"))
}

func TestAddItemWritesOutbox(t *testing.T) {
	db := testdb.New(t)
	products := mysql.NewProductRepository(db)
	uows := mysql.NewUnitOfWorkFactory(db)
	p, err := catalog.NewProduct("seller-1", "Pencil", shared.NewMoney(decimal.RequireFromString("1"), "USD"), 5)
	require.NoError(t, err)
	require.NoError(t, shared.Execute(context.Background(), uows.New(), func(ctx context.Context) error {
		return products.Add(ctx, p)
	}))
	svc := appcart.NewService(mysql.NewCartRepository(db), products, uows, "USD")

	_, err = svc.AddItem(context.Background(), "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 1})
	require.NoError(t, err)

	var rows []po.OutboxMessagePO
	require.NoError(t, db.Where("type = ?", "cart.item_changed").Find(&rows).Error)
	assert.Len(t, rows, 1)
}

// staleCartLookup reports no cart for the first misses lookups, as a request
// that read before a concurrent first add committed would.
type staleCartLookup struct {
	cart.Repository
	misses int
}

func (r *staleCartLookup) FindByUserID(ctx context.Context, userID string) (*cart.Cart, error) {
	if r.misses > 0 {
		r.misses--
		return nil, shared.NewNotFoundError("cart")
	}
	return r.Repository.FindByUserID(ctx, userID)
}

func TestAddItemLosingCartCreationRace(t *testing.T) {
	db := testdb.New(t)
	products := mysql.NewProductRepository(db)
	carts := mysql.NewCartRepository(db)
	uows := mysql.NewUnitOfWorkFactory(db)
	ctx := context.Background()

	p, err := catalog.NewProduct("seller-1", "Stapler", shared.NewMoney(decimal.RequireFromString("7"), "USD"), 50)
	require.NoError(t, err)
	require.NoError(t, shared.Execute(ctx, uows.New(), func(ctx context.Context) error {
		return products.Add(ctx, p)
	}))
	svc := appcart.NewService(carts, products, uows, "USD")

	_, err = svc.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 2})
	require.NoError(t, err)

	// Without retry the losing writer sees a conflict and changes nothing.
	noRetry := appcart.NewService(&staleCartLookup{Repository: carts, misses: 1}, products, uows, "USD")
	_, err = noRetry.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 1})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	// With retry the second attempt finds the winner's cart and merges into it.
	cfg := retry.DefaultConfig
	cfg.InitialDelay = time.Millisecond
	cfg.JitterEnabled = false
	withRetry := appcart.NewService(&staleCartLookup{Repository: carts, misses: 1}, products, uows, "USD").WithRetry(cfg)
	resp, err := withRetry.AddItem(ctx, "user-1", appcart.AddItemRequest{ProductID: p.ID(), Quantity: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)

	c, err := svc.GetCartByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Items()[0].Quantity())
}
