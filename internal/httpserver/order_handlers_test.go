package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/transport"
)

func (env *testEnv) addToUserCart(userID uint, productID uint, qty int) {
	env.T.Helper()
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add", map[string]any{
		"product": productID,
		"qty":     qty,
	})
	c.Set("user_id", userID)
	require.NoError(env.T, env.Cart.Add(c))
}

func (env *testEnv) checkout(userID uint, body map[string]any) (*transport.CheckoutResponse, int) {
	env.T.Helper()
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders/checkout", body)
	c.Set("user_id", userID)
	require.NoError(env.T, env.Order.Checkout(c))

	var resp transport.CheckoutResponse
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	return &resp, rec.Code
}

var checkoutBody = map[string]any{
	"fullname":       "Jo Tran",
	"address":        "12 Elm St, Springfield",
	"payment_method": "cod",
}

func TestOrderHandlers_Checkout(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct("lamp", "59.90", 5)
	env.addToUserCart(1, p.ID, 3)

	resp, code := env.checkout(1, checkoutBody)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)
	require.NotZero(t, resp.OrderID)
	require.Equal(t, "179.7", resp.Total.String())

	var got models.Product
	require.NoError(t, env.DB.First(&got, p.ID).Error)
	require.Equal(t, int64(2), *got.Stock)
}

func TestOrderHandlers_CheckoutStockShortage(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct("lamp", "59.90", 1)
	env.addToUserCart(1, p.ID, 2)

	resp, code := env.checkout(1, checkoutBody)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.False(t, resp.Success)
	require.Len(t, resp.Shortages, 1)
	require.Equal(t, p.ID, resp.Shortages[0].ProductID)
	require.Equal(t, uint(2), resp.Shortages[0].Requested)
	require.Equal(t, uint(1), resp.Shortages[0].Available)
}

func TestOrderHandlers_CheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	resp, code := env.checkout(1, checkoutBody)
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, resp.Success)
	require.Contains(t, resp.Message, "cart is empty")
}

func TestOrderHandlers_Cancel(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct("lamp", "59.90", 5)
	env.addToUserCart(1, p.ID, 2)

	resp, code := env.checkout(1, checkoutBody)
	require.Equal(t, http.StatusOK, code)
	require.NotZero(t, resp.OrderID)

	cancel := func() (*transport.CancelResponse, int) {
		rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders/1/cancel", nil)
		c.Set("user_id", uint(1))
		c.SetParamNames("id")
		c.SetParamValues("1")
		require.NoError(t, env.Order.Cancel(c))

		var out transport.CancelResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return &out, rec.Code
	}

	out, code := cancel()
	require.Equal(t, http.StatusOK, code)
	require.True(t, out.Success)

	var got models.Product
	require.NoError(t, env.DB.First(&got, p.ID).Error)
	require.Equal(t, int64(5), *got.Stock)

	// second cancel is rejected, not silently accepted
	out, code = cancel()
	require.Equal(t, http.StatusConflict, code)
	require.False(t, out.Success)
}

func TestOrderHandlers_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct("lamp", "59.90", 5)
	env.addToUserCart(1, p.ID, 1)

	resp, code := env.checkout(1, checkoutBody)
	require.Equal(t, http.StatusOK, code)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil)
	c.Set("user_id", uint(1))
	require.NoError(t, env.Order.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	require.Equal(t, resp.OrderID, orders[0].ID)

	// another user sees nothing
	rec, c = env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil)
	c.Set("user_id", uint(2))
	require.NoError(t, env.Order.List(c))
	orders = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Empty(t, orders)
}
