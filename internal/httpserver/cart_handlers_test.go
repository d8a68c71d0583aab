package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/tranvm/luxora/internal/transport"
)

func TestCartHandlers_AnonymousFlow(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct("lamp", "59.90", 10)

	// first add mints the cart token cookie
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product": p.ID,
		"qty":     2,
	})
	require.NoError(t, env.Cart.Add(c))
	require.Equal(t, http.StatusOK, rec.Code)

	token := cookieNamed(t, rec, "cartToken")
	require.NotNil(t, token)
	require.NotEmpty(t, token.Value)

	var view transport.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	require.Equal(t, uint(2), view.Items[0].Quantity)

	// the cookie addresses the same cart afterwards
	rec, c = env.doJSONRequest(http.MethodGet, "/api/v1/cart", nil, token)
	require.NoError(t, env.Cart.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	view = transport.CartView{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)

	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/cart/update", map[string]any{
		"product": p.ID,
		"qty":     5,
	}, token)
	require.NoError(t, env.Cart.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	view = transport.CartView{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, uint(5), view.Items[0].Quantity)

	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/cart/remove", map[string]any{
		"product": p.ID,
	}, token)
	require.NoError(t, env.Cart.Remove(c))
	require.Equal(t, http.StatusOK, rec.Code)

	view = transport.CartView{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Empty(t, view.Items)
}

func TestCartHandlers_GetWithoutCart(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/cart", nil)
	require.NoError(t, env.Cart.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var view transport.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Empty(t, view.Items)
}

func TestCartHandlers_AddUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product": 42,
	})
	err := env.Cart.Add(c)
	require.Error(t, err)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestCartHandlers_AuthenticatedUserCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct("sofa", "499.00", 3)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product": p.ID,
	})
	c.Set("user_id", uint(1))
	require.NoError(t, env.Cart.Add(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// no anonymous token for a user-owned cart
	require.Nil(t, cookieNamed(t, rec, "cartToken"))

	var view transport.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
}
