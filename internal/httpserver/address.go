package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/service"
	"github.com/tranvm/luxora/internal/transport"
)

type AddressHTTP struct {
	Svc *service.AddressService
}

func (h *AddressHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.list")

	userID, err := userIDFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	addrs, err := h.Svc.List(ctx, userID)
	if err != nil {
		l.Error("address_list_error", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, addrs)
}

func (h *AddressHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.create")

	userID, err := userIDFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	addr, err := h.Svc.Create(ctx, userID, req)
	if err != nil {
		l.Warn("address_create_error", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, addr)
}

func (h *AddressHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.update")

	userID, err := userIDFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	addr, err := h.Svc.Update(ctx, userID, id, req)
	if err != nil {
		l.Warn("address_update_error", "address_id", id, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, addr)
}

func (h *AddressHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.delete")

	userID, err := userIDFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Delete(ctx, userID, id); err != nil {
		l.Warn("address_delete_error", "address_id", id, "error", err)
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AddressHTTP) SetDefault(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.set_default")

	userID, err := userIDFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	addr, err := h.Svc.SetDefault(ctx, userID, id)
	if err != nil {
		l.Warn("address_set_default_error", "address_id", id, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, addr)
}
