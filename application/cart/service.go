/*
Package cart Application Layer - cart use cases

The checkout workflow consumes this package through two calls that take part
in the caller's transaction: GetCartByUser and ClearCart. The remaining use
cases open their own unit of work.
*/
package cart

import (
	"context"
	"errors"
	"time"

	"marketplace/domain/cart"
	"marketplace/domain/catalog"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/retry"
)

// Service Cart application service
type Service struct {
	carts    cart.Repository
	products catalog.Repository
	uows     shared.UnitOfWorkFactory
	currency string
	retry    retry.Config
}

func NewService(carts cart.Repository, products catalog.Repository, uows shared.UnitOfWorkFactory, currency string) *Service {
	return &Service{carts: carts, products: products, uows: uows, currency: currency}
}

// WithRetry re-runs AddItem from a fresh read when it loses a race, for
// example two first adds creating a cart for the same user.
func (s *Service) WithRetry(cfg retry.Config) *Service {
	s.retry = cfg
	return s
}

// AddItemRequest Add to cart request DTO
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// GetCartByUser returns the user's cart, or nil when the user has none.
// Inside a transaction context the read goes through that transaction.
func (s *Service) GetCartByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	c, err := s.carts.FindByUserID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ClearCart empties the user's cart. With a transaction context the change is
// staged for the caller's next SaveChanges; otherwise it commits on its own.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	if persistence.SessionFromContext(ctx) == nil {
		return shared.Execute(ctx, s.uows.New(), func(txCtx context.Context) error {
			return s.clear(txCtx, userID)
		})
	}
	return s.clear(ctx, userID)
}

func (s *Service) clear(ctx context.Context, userID string) error {
	c, err := s.GetCartByUser(ctx, userID)
	if err != nil || c == nil || c.IsEmpty() {
		return err
	}
	c.Clear()
	return s.carts.Update(ctx, c)
}

// GetCart is the read side for the HTTP layer.
func (s *Service) GetCart(ctx context.Context, userID string) (*CartResponse, error) {
	c, err := s.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return emptyCartResponse(userID, s.currency), nil
	}
	return toCartResponse(c), nil
}

// AddItem puts quantity of a product into the user's cart at its current
// price, creating the cart on first use.
func (s *Service) AddItem(ctx context.Context, userID string, req AddItemRequest) (*CartResponse, error) {
	var c *cart.Cart

	err := retry.ExecuteWithRetry(ctx, s.retry, func(ctx context.Context) error {
		return shared.Execute(ctx, s.uows.New(), func(txCtx context.Context) error {
			var err error
			c, err = s.addItem(txCtx, userID, req)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return toCartResponse(c), nil
}

// addItem loads or creates the cart and stages it. The unique live cart key
// turns a lost creation race into a concurrency conflict at save time.
func (s *Service) addItem(txCtx context.Context, userID string, req AddItemRequest) (*cart.Cart, error) {
	p, err := s.products.GetByID(txCtx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, shared.NewBusinessRuleError("product", "product "+p.Name()+" is not available")
	}

	c, err := s.GetCartByUser(txCtx, userID)
	if err != nil {
		return nil, err
	}
	isNew := c == nil
	if isNew {
		if c, err = cart.NewCart(userID, s.currency); err != nil {
			return nil, err
		}
	}

	if err := c.AddItem(p.ID(), p.Name(), req.Quantity, p.Price()); err != nil {
		return nil, err
	}
	if isNew {
		return c, s.carts.Add(txCtx, c)
	}
	return c, s.carts.Update(txCtx, c)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*CartResponse, error) {
	var c *cart.Cart

	err := shared.Execute(ctx, s.uows.New(), func(txCtx context.Context) error {
		var err error
		c, err = s.carts.FindByUserID(txCtx, userID)
		if err != nil {
			return err
		}
		if err := c.RemoveItem(productID); err != nil {
			return err
		}
		return s.carts.Update(txCtx, c)
	})
	if err != nil {
		return nil, err
	}
	return toCartResponse(c), nil
}

// CartResponse Cart response DTO
type CartResponse struct {
	UserID    string             `json:"user_id"`
	Items     []CartItemResponse `json:"items"`
	Subtotal  string             `json:"subtotal"`
	Currency  string             `json:"currency"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

type CartItemResponse struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	PriceSnapshot string `json:"price_snapshot"`
}

func toCartResponse(c *cart.Cart) *CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items()))
	for _, it := range c.Items() {
		items = append(items, CartItemResponse{
			ProductID:     it.ProductID(),
			ProductName:   it.ProductName(),
			Quantity:      it.Quantity(),
			PriceSnapshot: it.PriceSnapshot().Amount().StringFixed(2),
		})
	}
	updated := c.UpdatedAt()
	return &CartResponse{
		UserID:    c.UserID(),
		Items:     items,
		Subtotal:  c.Subtotal().Amount().StringFixed(2),
		Currency:  c.Currency(),
		UpdatedAt: &updated,
	}
}

func emptyCartResponse(userID, currency string) *CartResponse {
	return &CartResponse{
		UserID:   userID,
		Items:    []CartItemResponse{},
		Subtotal: "0.00",
		Currency: currency,
	}
}
