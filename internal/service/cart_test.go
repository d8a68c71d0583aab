package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/transport"
)

func TestCartAdd_CreatesAnonymousCart(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	p := createProduct(t, r, "lamp", "59.90", int64p(4))

	res, view, err := svc.Add(ctx, Identity{}, transport.CartMutationRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.NotEmpty(t, res.NewToken)
	require.Len(t, view.Items, 1)
	require.Equal(t, uint(2), view.Items[0].Quantity)
	requireDecimal(t, "119.80", view.Total)

	// the token addresses the same cart on the next request
	res2, view2, err := svc.Add(ctx, Identity{CartToken: res.NewToken}, transport.CartMutationRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	require.Empty(t, res2.NewToken)
	require.Equal(t, res.Cart.ID, res2.Cart.ID)
	require.Len(t, view2.Items, 1)
	require.Equal(t, uint(3), view2.Items[0].Quantity)
}

func TestCartAdd_DefaultsQuantityToOne(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}

	p := createProduct(t, r, "sofa", "499.00", nil)

	_, view, err := svc.Add(context.Background(), Identity{UserID: userRef(1)}, transport.CartMutationRequest{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, uint(1), view.Items[0].Quantity)
}

func TestCartAdd_SeparateLinePerColor(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := Identity{UserID: userRef(1)}

	p := createProduct(t, r, "chair", "89.00", int64p(10))
	oak := createColor(t, r, "oak")
	ivory := createColor(t, r, "ivory")

	_, _, err := svc.Add(ctx, id, transport.CartMutationRequest{ProductID: p.ID, ColorID: oak.ID, Quantity: 1})
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, id, transport.CartMutationRequest{ProductID: p.ID, ColorID: ivory.ID, Quantity: 1})
	require.NoError(t, err)
	_, view, err := svc.Add(ctx, id, transport.CartMutationRequest{ProductID: p.ID, ColorID: oak.ID, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	require.Equal(t, uint(3), view.Items[0].Quantity)
	require.Equal(t, "oak", view.Items[0].ColorName)
	require.Equal(t, uint(1), view.Items[1].Quantity)
}

func TestCartAdd_UnknownProduct(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}

	_, _, err := svc.Add(context.Background(), Identity{UserID: userRef(1)}, transport.CartMutationRequest{ProductID: 42})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartSetQuantity_UnknownProduct(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	_, _, err := svc.SetQuantity(ctx, Identity{}, transport.CartMutationRequest{ProductID: 999, Quantity: 3})
	require.ErrorIs(t, err, ErrNotFound)

	// the rejected upsert must not leave a cart behind
	var count int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Count(&count).Error)
	require.Zero(t, count)

	// nor a phantom line in an existing cart
	p := createProduct(t, r, "lamp", "59.90", int64p(4))
	id := Identity{UserID: userRef(1)}
	_, _, err = svc.Add(ctx, id, transport.CartMutationRequest{ProductID: p.ID})
	require.NoError(t, err)
	_, _, err = svc.SetQuantity(ctx, id, transport.CartMutationRequest{ProductID: 999, Quantity: 3})
	require.ErrorIs(t, err, ErrNotFound)

	res, err := svc.Resolve(ctx, id, false)
	require.NoError(t, err)
	require.Len(t, cartLines(t, r, res.Cart.ID), 1)
}

func TestCartItem_ColorlessLinesUniquePerCart(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	p := createProduct(t, r, "lamp", "59.90", int64p(4))
	cart, err := r.CreateAnonCart(ctx, "dup-check")
	require.NoError(t, err)

	require.NoError(t, r.DB.Create(&models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 1}).Error)
	// NULL color must not slip past the unique index
	err = r.DB.Create(&models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 2}).Error
	require.Error(t, err)
}

func TestCartSetQuantity(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := Identity{UserID: userRef(1)}

	p := createProduct(t, r, "table", "189.50", int64p(10))

	_, _, err := svc.Add(ctx, id, transport.CartMutationRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, view, err := svc.SetQuantity(ctx, id, transport.CartMutationRequest{ProductID: p.ID, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, uint(5), view.Items[0].Quantity)

	_, view, err = svc.SetQuantity(ctx, id, transport.CartMutationRequest{ProductID: p.ID, Quantity: 0})
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestCartSetQuantityZero_WithoutCart(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}

	_, view, err := svc.SetQuantity(context.Background(), Identity{}, transport.CartMutationRequest{ProductID: 1, Quantity: 0})
	require.NoError(t, err)
	require.Empty(t, view.Items)

	// a delete must not conjure a cart
	var count int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCartRemove_IsIdempotent(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := Identity{UserID: userRef(1)}

	p := createProduct(t, r, "lamp", "59.90", int64p(4))

	_, _, err := svc.Add(ctx, id, transport.CartMutationRequest{ProductID: p.ID})
	require.NoError(t, err)

	_, view, err := svc.Remove(ctx, id, transport.CartMutationRequest{ProductID: p.ID})
	require.NoError(t, err)
	require.Empty(t, view.Items)

	_, view, err = svc.Remove(ctx, id, transport.CartMutationRequest{ProductID: p.ID})
	require.NoError(t, err)
	require.Empty(t, view.Items)

	// no cart at all behaves the same
	_, view, err = svc.Remove(ctx, Identity{CartToken: "gone"}, transport.CartMutationRequest{ProductID: p.ID})
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestCartResolve_MergesAnonymousCartOnLogin(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	a := createProduct(t, r, "sofa", "499.00", int64p(5))
	b := createProduct(t, r, "lamp", "59.90", int64p(5))

	anonRes, _, err := svc.Add(ctx, Identity{}, transport.CartMutationRequest{ProductID: a.ID, Quantity: 2})
	require.NoError(t, err)
	token := anonRes.NewToken
	_, _, err = svc.Add(ctx, Identity{CartToken: token}, transport.CartMutationRequest{ProductID: b.ID, Quantity: 1})
	require.NoError(t, err)

	userID := userRef(7)
	_, _, err = svc.Add(ctx, Identity{UserID: userID}, transport.CartMutationRequest{ProductID: a.ID, Quantity: 3})
	require.NoError(t, err)

	res, err := svc.Resolve(ctx, Identity{UserID: userID, CartToken: token}, false)
	require.NoError(t, err)
	require.True(t, res.TokenConsumed)

	items := cartLines(t, r, res.Cart.ID)
	require.Len(t, items, 2)
	require.Equal(t, a.ID, items[0].ProductID)
	require.Equal(t, uint(5), items[0].Quantity)
	require.Equal(t, b.ID, items[1].ProductID)
	require.Equal(t, uint(1), items[1].Quantity)

	// the anonymous cart is gone, its token dead
	_, err = svc.Resolve(ctx, Identity{CartToken: token}, false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartResolve_ClaimedTokenIsInvisible(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()

	owner := uint(3)
	cart := models.Cart{UserID: &owner, Token: "claimed-token"}
	require.NoError(t, r.DB.Create(&cart).Error)

	// an anonymous visitor holding the same token must not see the
	// owner's cart
	_, err := svc.Resolve(ctx, Identity{CartToken: "claimed-token"}, false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartView_Totals(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CartService{Repo: r}
	ctx := context.Background()
	id := Identity{UserID: userRef(1)}

	a := createProduct(t, r, "sofa", "499.00", int64p(5))
	b := createProduct(t, r, "lamp", "59.90", int64p(5))

	_, _, err := svc.Add(ctx, id, transport.CartMutationRequest{ProductID: a.ID, Quantity: 2})
	require.NoError(t, err)
	_, view, err := svc.Add(ctx, id, transport.CartMutationRequest{ProductID: b.ID, Quantity: 3})
	require.NoError(t, err)

	requireDecimal(t, "998.00", view.Items[0].Subtotal)
	requireDecimal(t, "179.70", view.Items[1].Subtotal)
	requireDecimal(t, "1177.70", view.Total)
}
