package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/events"
	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
	"github.com/tranvm/luxora/internal/transport"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Carts  *CartService
	Events Publisher
}

// CheckoutResult carries the created order plus cart-cookie bookkeeping
// for the handler.
type CheckoutResult struct {
	Order         *models.Order
	TokenConsumed bool
}

// Checkout snapshots the identity's cart into an order. The shipping
// identity comes from the default address, then an explicit address_id,
// then inline fields; anonymous checkout requires inline fields. Any
// stock shortage aborts the whole checkout and all shortages are
// reported together.
func (s *OrderService) Checkout(ctx context.Context, id Identity, req transport.CheckoutRequest) (*CheckoutResult, error) {
	res, err := s.Carts.Resolve(ctx, id, false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("cart is empty: %w", ErrValidation)
		}
		return nil, err
	}

	ship, err := s.resolveShipping(ctx, id, req)
	if err != nil {
		return nil, err
	}

	order, shortages, err := s.Repo.Checkout(ctx, res.Cart.ID, *ship, req.PaymentMethod)
	if err != nil {
		if errors.Is(err, repo.ErrEmptyCart) {
			return nil, fmt.Errorf("cart is empty: %w", ErrValidation)
		}
		return nil, err
	}
	if len(shortages) > 0 {
		return nil, &StockError{Shortages: shortages}
	}

	s.publish(ctx, order.ID, map[string]any{
		"type":     "order_created",
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
	})

	// anonymous carts are gone after checkout, drop the cookie either way
	return &CheckoutResult{Order: order, TokenConsumed: !id.Authenticated() || res.TokenConsumed}, nil
}

func (s *OrderService) resolveShipping(ctx context.Context, id Identity, req transport.CheckoutRequest) (*transport.Shipping, error) {
	if id.Authenticated() {
		addr, err := s.Repo.DefaultAddress(ctx, *id.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err != nil && req.AddressID != 0 {
			addr, err = s.Repo.GetAddress(ctx, req.AddressID, *id.UserID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("address not found: %w", ErrValidation)
			}
			if err != nil {
				return nil, err
			}
		}
		if addr != nil {
			return &transport.Shipping{
				UserID:   id.UserID,
				FullName: addr.FullName,
				Phone:    addr.Phone,
				Address:  formatAddress(addr),
			}, nil
		}
	}

	if req.FullName == "" || req.Address == "" {
		return nil, fmt.Errorf("shipping address required: %w", ErrValidation)
	}
	return &transport.Shipping{
		UserID:   id.UserID,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	}, nil
}

func formatAddress(a *models.Address) string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Cancel rejects anything outside pending/shipping; cancelling twice is
// an explicit error, not a silent success. Stock comes back exactly
// once per item, for products that still exist and track stock.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint) error {
	err := s.Repo.CancelOrder(ctx, orderID, userID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("order not found: %w", ErrNotFound)
	case errors.Is(err, repo.ErrAlreadyCancelled):
		return fmt.Errorf("order already cancelled: %w", ErrConflict)
	case errors.Is(err, repo.ErrNotCancellable):
		return fmt.Errorf("order can no longer be cancelled: %w", ErrConflict)
	default:
		return err
	}

	s.publish(ctx, orderID, map[string]any{
		"type":     "order_cancelled",
		"order_id": orderID,
		"user_id":  userID,
	})
	return nil
}

func (s *OrderService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, userID, limit, offset)
}

func (s *OrderService) Get(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order not found: %w", ErrNotFound)
	}
	return order, err
}

func (s *OrderService) publish(ctx context.Context, orderID uint, event map[string]any) {
	if s.Events == nil {
		return
	}
	key := fmt.Sprint(orderID)
	if err := s.Events.Publish(ctx, events.TopicOrder, key, event); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "topic", events.TopicOrder, "error", err)
	}
}

// StockError reports every shortage found during checkout.
type StockError struct {
	Shortages []transport.Shortage
}

func (e *StockError) Error() string {
	names := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		names[i] = fmt.Sprintf("%s: only %d left", s.Name, s.Available)
	}
	return strings.Join(names, "; ")
}

func (e *StockError) Unwrap() error { return ErrStock }
