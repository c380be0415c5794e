/*
Package order Application Layer - order use cases

CreateOrderFromCart turns a cart into an order inside one transaction:

	load cart → load address → add lines and reduce stock → pricing
	→ coupon (optional) → persist order → record coupon usage (optional)
	→ clear cart → commit → reload

Application services never publish events. Aggregates record them, the unit
of work writes them to the outbox table in the same transaction as the
business rows, and the relay publishes them later.

A lost optimistic version check surfaces as shared.ErrConcurrencyConflict.
When retries are enabled the whole workflow is re-run from fresh reads with a
new unit of work; it never resumes half way.
*/
package order

import (
	"context"
	"errors"
	"time"

	"marketplace/domain/catalog"
	"marketplace/domain/coupon"
	"marketplace/domain/order"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/retry"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

// CheckoutService Order application service
type CheckoutService struct {
	orders    order.Repository
	products  catalog.Repository
	coupons   coupon.Repository
	carts     CartStore
	addresses AddressLookup
	validator CouponValidator
	lookup    CouponLookup
	uows      shared.UnitOfWorkFactory
	pricing   order.PricingPolicy
	currency  string
	retry     retry.Config
	now       func() time.Time
}

// Dependencies groups the collaborators of CheckoutService.
type Dependencies struct {
	Orders    order.Repository
	Products  catalog.Repository
	Coupons   coupon.Repository
	Carts     CartStore
	Addresses AddressLookup
	Validator CouponValidator
	Lookup    CouponLookup
	UoW       shared.UnitOfWorkFactory
}

// NewCheckoutService Create order application service
func NewCheckoutService(deps Dependencies, pricing order.PricingPolicy, currency string, retryConfig retry.Config) *CheckoutService {
	return &CheckoutService{
		orders:    deps.Orders,
		products:  deps.Products,
		coupons:   deps.Coupons,
		carts:     deps.Carts,
		addresses: deps.Addresses,
		validator: deps.Validator,
		lookup:    deps.Lookup,
		uows:      deps.UoW,
		pricing:   pricing,
		currency:  currency,
		retry:     retryConfig,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ============================================================================
// Checkout
// ============================================================================

// CreateOrderFromCart places an order for everything in the user's cart.
// It returns the order as re-read after commit.
func (s *CheckoutService) CreateOrderFromCart(ctx context.Context, req CheckoutRequest) (*OrderResponse, error) {
	var orderID string

	err := retry.ExecuteWithRetry(ctx, s.retry, func(ctx context.Context) error {
		id, err := s.checkout(ctx, req)
		if err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Fresh read: the caller sees exactly what was committed.
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(o), nil
}

// checkout runs one attempt in its own unit of work.
func (s *CheckoutService) checkout(ctx context.Context, req CheckoutRequest) (_ string, err error) {
	uow := s.uows.New()
	txCtx, err := uow.BeginTransaction(ctx)
	if err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = uow.RollbackTransaction(context.WithoutCancel(ctx))
			panic(r)
		}
		if err == nil {
			return
		}
		if rbErr := uow.RollbackTransaction(context.WithoutCancel(ctx)); rbErr != nil {
			logger.FromContext(ctx).Error("checkout rollback failed", zap.Error(rbErr))
		}
		s.logFailure(ctx, req, err)
	}()

	// 1. cart
	c, err := s.carts.GetCartByUser(txCtx, req.UserID)
	if err != nil {
		return "", err
	}
	if c == nil || c.IsEmpty() {
		return "", shared.NewBusinessRuleError("cart", "cart is empty")
	}

	// 2. address, owned by the same user
	addr, err := s.addresses.GetAddress(txCtx, req.AddressID, req.UserID)
	if err != nil {
		return "", err
	}

	// 3. order from the address snapshot
	o, err := order.NewOrder(req.UserID, addr.Snapshot(), s.currency)
	if err != nil {
		return "", err
	}

	// 4. lines and stock
	for _, item := range c.Items() {
		p, err := s.products.GetByID(txCtx, item.ProductID())
		if err != nil {
			return "", err
		}
		if err := o.AddItem(p, item.Quantity()); err != nil {
			return "", err
		}
		if err := p.ReduceStock(item.Quantity()); err != nil {
			return "", err
		}
		if err := s.products.Update(txCtx, p); err != nil {
			return "", err
		}
	}

	// 5. shipping and tax
	if err := o.ApplyPricing(s.pricing); err != nil {
		return "", err
	}

	// 6. coupon
	redeemed, err := s.applyCoupon(txCtx, o, req, c.ProductIDs())
	if err != nil {
		return "", err
	}

	// 7. persist the order; OrderCreated carries the final pricing
	if err := o.Place(); err != nil {
		return "", err
	}
	if err := s.orders.Add(txCtx, o); err != nil {
		return "", err
	}
	if _, err := uow.SaveChanges(txCtx); err != nil {
		return "", err
	}

	// 8. usage ledger and counter, referencing the persisted order
	if redeemed != nil {
		discount, _ := o.CouponDiscount()
		if _, err := redeemed.Redeem(req.UserID, o.ID(), discount.Amount(), s.now()); err != nil {
			return "", shared.WrapBusinessRule("coupon", "failed to redeem coupon", err)
		}
		if err := s.coupons.Update(txCtx, redeemed); err != nil {
			return "", err
		}
		if _, err := uow.SaveChanges(txCtx); err != nil {
			return "", err
		}
	}

	// 9. clear the cart before commit
	if err := s.carts.ClearCart(txCtx, req.UserID); err != nil {
		return "", err
	}
	if _, err := uow.SaveChanges(txCtx); err != nil {
		return "", err
	}

	if err := uow.CommitTransaction(txCtx); err != nil {
		return "", err
	}

	logger.FromContext(ctx).Info("order placed",
		zap.String("order_id", o.ID()),
		zap.String("user_id", req.UserID),
		zap.String("total", o.TotalAmount().String()),
	)
	return o.ID(), nil
}

// applyCoupon validates the code and applies a positive discount. It returns
// the coupon to redeem once the order is persisted, or nil. Any failure here
// is reported as a business rule violation.
func (s *CheckoutService) applyCoupon(ctx context.Context, o *order.Order, req CheckoutRequest, productIDs []string) (*coupon.Coupon, error) {
	if coupon.NormalizeCode(req.CouponCode) == "" {
		return nil, nil
	}

	discount, err := s.validator.ValidateCoupon(ctx, req.CouponCode, o.SubTotal().Amount(), req.UserID, productIDs)
	if err != nil {
		return nil, shared.WrapBusinessRule("coupon", "failed to apply coupon", err)
	}
	if !discount.IsPositive() {
		return nil, nil
	}

	c, err := s.lookup.GetCouponByCode(ctx, req.CouponCode)
	if err != nil {
		return nil, shared.WrapBusinessRule("coupon", "failed to apply coupon", err)
	}
	if c == nil {
		return nil, shared.NewBusinessRuleError("coupon", "coupon "+coupon.NormalizeCode(req.CouponCode)+" disappeared during checkout")
	}
	if err := o.ApplyCoupon(c.Code(), discount); err != nil {
		return nil, shared.WrapBusinessRule("coupon", "failed to apply coupon", err)
	}
	return c, nil
}

func (s *CheckoutService) logFailure(ctx context.Context, req CheckoutRequest, err error) {
	fields := []zap.Field{
		zap.String("user_id", req.UserID),
		zap.String("address_id", req.AddressID),
		zap.String("coupon_code", req.CouponCode),
		zap.Error(err),
	}
	log := logger.FromContext(ctx)
	switch {
	case errors.Is(err, shared.ErrConcurrencyConflict):
		log.Warn("checkout lost a concurrent update", fields...)
	case errors.Is(err, shared.ErrBusinessRule),
		errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrForbidden):
		log.Info("checkout rejected", fields...)
	default:
		log.Error("checkout failed", fields...)
	}
}

// ============================================================================
// Queries
// ============================================================================

func (s *CheckoutService) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(o), nil
}

// ListUserOrders returns the user's orders, newest first.
func (s *CheckoutService) ListUserOrders(ctx context.Context, userID string) ([]*OrderResponse, error) {
	return s.SearchUserOrders(ctx, userID, ListOrdersQuery{})
}

// SearchUserOrders returns the user's orders matching q, newest first.
func (s *CheckoutService) SearchUserOrders(ctx context.Context, userID string, q ListOrdersQuery) ([]*OrderResponse, error) {
	orders, err := s.orders.FindMatching(ctx, userID, q.specification())
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

func (q ListOrdersQuery) specification() shared.Specification[*order.Order] {
	var specs []shared.Specification[*order.Order]
	if q.Status != "" {
		specs = append(specs, order.ByStatusSpecification{Status: order.Status(q.Status)})
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		specs = append(specs, order.CreatedBetweenSpecification{Start: q.From, End: q.To})
	}
	if q.Cancellable {
		specs = append(specs, order.Cancellable)
	}
	if len(specs) == 0 {
		return nil
	}
	return shared.And(specs...)
}

// ============================================================================
// Lifecycle
// ============================================================================

// CancelOrder cancels a pending or confirmed order of userID and puts every
// line back in stock, all in one transaction.
func (s *CheckoutService) CancelOrder(ctx context.Context, orderID string, req CancelOrderRequest) (*OrderResponse, error) {
	err := retry.ExecuteWithRetry(ctx, s.retry, func(ctx context.Context) error {
		return shared.Execute(ctx, s.uows.New(), func(txCtx context.Context) error {
			o, err := s.orders.GetByID(txCtx, orderID)
			if err != nil {
				return err
			}
			if o.UserID() != req.UserID {
				return shared.NewForbiddenError("order", "order belongs to another user")
			}
			if err := o.Cancel(req.Reason); err != nil {
				return err
			}
			for _, item := range o.Items() {
				p, err := s.products.GetByID(txCtx, item.ProductID())
				if err != nil {
					return err
				}
				if err := p.Restock(item.Quantity()); err != nil {
					return err
				}
				if err := s.products.Update(txCtx, p); err != nil {
					return err
				}
			}
			return s.orders.Update(txCtx, o)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

// UpdateOrderStatus moves an order along PENDING → CONFIRMED → SHIPPED →
// DELIVERED. Cancellation goes through CancelOrder so stock is restored.
func (s *CheckoutService) UpdateOrderStatus(ctx context.Context, orderID string, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	err := retry.ExecuteWithRetry(ctx, s.retry, func(ctx context.Context) error {
		return shared.Execute(ctx, s.uows.New(), func(txCtx context.Context) error {
			o, err := s.orders.GetByID(txCtx, orderID)
			if err != nil {
				return err
			}
			switch order.Status(req.Status) {
			case order.StatusConfirmed:
				err = o.Confirm()
			case order.StatusShipped:
				err = o.Ship()
			case order.StatusDelivered:
				err = o.Deliver()
			default:
				err = shared.NewValidationError("order", "status", "unsupported target status "+req.Status)
			}
			if err != nil {
				return err
			}
			return s.orders.Update(txCtx, o)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}
