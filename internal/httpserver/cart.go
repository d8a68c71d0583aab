package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/service"
	"github.com/tranvm/luxora/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	res, err := h.Svc.Resolve(ctx, identityFrom(c), false)
	if err != nil {
		if he := httpError(err); he.Code == http.StatusNotFound {
			// no cart yet is an empty cart, not an error
			return c.JSON(http.StatusOK, transport.CartView{Items: []transport.CartLine{}})
		}
		l.Error("cart_resolve_error", "error", err)
		return httpError(err)
	}
	applyCartCookie(c, res)

	view, err := h.Svc.View(ctx, res.Cart.ID)
	if err != nil {
		l.Error("cart_view_error", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.CartMutationRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_add_bad_body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, view, err := h.Svc.Add(ctx, identityFrom(c), req)
	if err != nil {
		l.Warn("cart_add_error", "error", err)
		return httpError(err)
	}
	applyCartCookie(c, res)

	l.Info("cart_line_added", "cart_id", view.CartID, "product_id", req.ProductID)
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	var req transport.CartMutationRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_update_bad_body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, view, err := h.Svc.SetQuantity(ctx, identityFrom(c), req)
	if err != nil {
		l.Warn("cart_update_error", "error", err)
		return httpError(err)
	}
	applyCartCookie(c, res)

	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	var req transport.CartMutationRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_remove_bad_body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, view, err := h.Svc.Remove(ctx, identityFrom(c), req)
	if err != nil {
		l.Warn("cart_remove_error", "error", err)
		return httpError(err)
	}
	applyCartCookie(c, res)

	return c.JSON(http.StatusOK, view)
}
