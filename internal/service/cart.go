package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/events"
	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
	"github.com/tranvm/luxora/internal/transport"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events Publisher
}

// Resolution is the outcome of resolving the acting identity's cart.
// NewToken is set when an anonymous cart was just created and the
// caller must hand the token back to the browser; TokenConsumed is set
// when a pre-login cart was merged away and the cookie must be cleared.
type Resolution struct {
	Cart          *models.Cart
	NewToken      string
	TokenConsumed bool
}

// Resolve returns the single authoritative cart for the identity.
//
// Authenticated: the user's cart, created on first access. A pre-login
// anonymous cart identified by the session token is merged in (same
// (product, color) lines summed) and deleted. Anonymous: the cart the
// token refers to, restricted to ownerless carts; created on demand
// when createIfMissing is set.
func (s *CartService) Resolve(ctx context.Context, id Identity, createIfMissing bool) (*Resolution, error) {
	if id.Authenticated() {
		return s.resolveUser(ctx, id)
	}

	if id.CartToken != "" {
		cart, err := s.Repo.TokenCart(ctx, id.CartToken)
		if err == nil {
			return &Resolution{Cart: cart}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if !createIfMissing {
		return nil, fmt.Errorf("no cart for identity: %w", ErrNotFound)
	}

	token := uuid.NewString()
	cart, err := s.Repo.CreateAnonCart(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Resolution{Cart: cart, NewToken: token}, nil
}

func (s *CartService) resolveUser(ctx context.Context, id Identity) (*Resolution, error) {
	var anon *models.Cart
	if id.CartToken != "" {
		cart, err := s.Repo.TokenCart(ctx, id.CartToken)
		switch {
		case err == nil:
			anon = cart
		case errors.Is(err, gorm.ErrRecordNotFound):
			// stale cookie, nothing to merge
		default:
			return nil, err
		}
	}

	cart, err := s.Repo.UserCart(ctx, *id.UserID, uuid.NewString())
	if err != nil {
		return nil, err
	}

	res := &Resolution{Cart: cart}
	if anon != nil && anon.ID != cart.ID {
		if err := s.Repo.MergeCarts(ctx, anon.ID, cart.ID); err != nil {
			return nil, err
		}
		res.TokenConsumed = true
		s.publish(ctx, id, map[string]any{
			"type":    "carts_merged",
			"from":    anon.ID,
			"into":    cart.ID,
			"user_id": *id.UserID,
		})
	}
	return res, nil
}

// Add appends qty of (product, color) to the cart, summing with an
// existing line. The first add creates the line with exactly qty.
func (s *CartService) Add(ctx context.Context, id Identity, req transport.CartMutationRequest) (*Resolution, *transport.CartView, error) {
	if req.ProductID == 0 {
		return nil, nil, fmt.Errorf("product required: %w", ErrValidation)
	}
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	res, err := s.Resolve(ctx, id, true)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.Repo.ProductByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, nil, err
	}

	if err := s.Repo.AddLine(ctx, res.Cart.ID, req.ProductID, colorRef(req.ColorID), uint(qty)); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, id, map[string]any{
		"type":       "cart_line_added",
		"cart_id":    res.Cart.ID,
		"product_id": req.ProductID,
		"quantity":   qty,
	})

	view, err := s.View(ctx, res.Cart.ID)
	return res, view, err
}

// SetQuantity upserts the line's quantity; zero or negative deletes it.
func (s *CartService) SetQuantity(ctx context.Context, id Identity, req transport.CartMutationRequest) (*Resolution, *transport.CartView, error) {
	if req.ProductID == 0 {
		return nil, nil, fmt.Errorf("product required: %w", ErrValidation)
	}

	qty := req.Quantity
	if qty < 0 {
		qty = 0
	}

	// the delete branch stays unvalidated, removing is idempotent
	if qty > 0 {
		if _, err := s.Repo.ProductByID(ctx, req.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, fmt.Errorf("product not found: %w", ErrNotFound)
			}
			return nil, nil, err
		}
	}

	// an upsert needs a cart; a delete on a missing cart is a no-op
	res, err := s.Resolve(ctx, id, qty > 0)
	if err != nil {
		if qty == 0 && errors.Is(err, ErrNotFound) {
			return nil, emptyView(), nil
		}
		return nil, nil, err
	}
	if err := s.Repo.SetLineQuantity(ctx, res.Cart.ID, req.ProductID, colorRef(req.ColorID), uint(qty)); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, id, map[string]any{
		"type":       "cart_line_set",
		"cart_id":    res.Cart.ID,
		"product_id": req.ProductID,
		"quantity":   qty,
	})

	view, err := s.View(ctx, res.Cart.ID)
	return res, view, err
}

// Remove deletes the matching line; removing an absent line succeeds.
func (s *CartService) Remove(ctx context.Context, id Identity, req transport.CartMutationRequest) (*Resolution, *transport.CartView, error) {
	if req.ProductID == 0 {
		return nil, nil, fmt.Errorf("product required: %w", ErrValidation)
	}

	res, err := s.Resolve(ctx, id, false)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, emptyView(), nil
		}
		return nil, nil, err
	}

	if err := s.Repo.RemoveLine(ctx, res.Cart.ID, req.ProductID, colorRef(req.ColorID)); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, id, map[string]any{
		"type":       "cart_line_removed",
		"cart_id":    res.Cart.ID,
		"product_id": req.ProductID,
	})

	view, err := s.View(ctx, res.Cart.ID)
	return res, view, err
}

// View renders the cart's current line listing.
func (s *CartService) View(ctx context.Context, cartID uint) (*transport.CartView, error) {
	items, err := s.Repo.CartLines(ctx, cartID)
	if err != nil {
		return nil, err
	}

	view := &transport.CartView{CartID: cartID, Items: []transport.CartLine{}, Total: decimal.Zero}
	for _, it := range items {
		line := transport.CartLine{
			ItemID:    it.ID,
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			Slug:      it.Product.Slug,
			ColorID:   it.ColorID,
			UnitPrice: it.Product.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		}
		if len(it.Product.Images) > 0 {
			line.ImageURL = it.Product.Images[0].URL
		}
		if it.Color != nil {
			line.ColorName = it.Color.Name
		}
		view.Items = append(view.Items, line)
		view.Total = view.Total.Add(line.Subtotal)
	}
	return view, nil
}

func (s *CartService) publish(ctx context.Context, id Identity, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicCart, id.Key(), event); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "topic", events.TopicCart, "error", err)
	}
}

func emptyView() *transport.CartView {
	return &transport.CartView{Items: []transport.CartLine{}, Total: decimal.Zero}
}

func colorRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
