package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/service"
	"github.com/tranvm/luxora/internal/transport"
	"github.com/tranvm/luxora/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_bad_body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Checkout(ctx, identityFrom(c), req)
	if err != nil {
		var stockErr *service.StockError
		if errors.As(err, &stockErr) {
			l.Info("checkout_stock_short", "shortages", len(stockErr.Shortages))
			return c.JSON(http.StatusUnprocessableEntity, transport.CheckoutResponse{
				Success:   false,
				Message:   stockErr.Error(),
				Shortages: stockErr.Shortages,
			})
		}
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, transport.CheckoutResponse{
				Success: false,
				Message: err.Error(),
			})
		}
		l.Error("checkout_error", "error", err)
		return httpError(err)
	}

	if res.TokenConsumed {
		c.SetCookie(expireCookie(cartCookie))
	}

	l.Info("checkout_success", "order_id", res.Order.ID)
	return c.JSON(http.StatusOK, transport.CheckoutResponse{
		Success: true,
		Message: "order placed",
		OrderID: res.Order.ID,
		Total:   res.Order.Total,
	})
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := userIDFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, err := h.Svc.List(ctx, userID, limit, offset)
	if err != nil {
		l.Error("order_list_error", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := userIDFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := h.Svc.Get(ctx, userID, orderID)
	if err != nil {
		l.Warn("order_get_error", "order_id", orderID, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	userID, err := userIDFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Cancel(ctx, userID, orderID); err != nil {
		l.Warn("order_cancel_rejected", "order_id", orderID, "error", err)
		he := httpError(err)
		return c.JSON(he.Code, transport.CancelResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	l.Info("order_cancelled", "order_id", orderID)
	return c.JSON(http.StatusOK, transport.CancelResponse{
		Success: true,
		Message: "order cancelled, stock returned",
	})
}
