package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tranvm/luxora/internal/service"
)

// identityFrom assembles the acting identity: an authenticated user id
// set by the token middleware and/or the anonymous cart token cookie.
func identityFrom(c echo.Context) service.Identity {
	var id service.Identity
	if v, ok := c.Get("user_id").(uint); ok {
		id.UserID = &v
	}
	if ck, err := c.Cookie(cartCookie); err == nil {
		id.CartToken = ck.Value
	}
	return id
}

// applyCartCookie propagates cart token changes from a resolution back
// to the browser.
func applyCartCookie(c echo.Context, res *service.Resolution) {
	if res == nil {
		return
	}
	if res.NewToken != "" {
		c.SetCookie(CreateCookie(cartCookie, res.NewToken, time.Now().Add(30*24*time.Hour)))
	}
	if res.TokenConsumed {
		c.SetCookie(expireCookie(cartCookie))
	}
}

func userIDFrom(c echo.Context) (uint, error) {
	v, ok := c.Get("user_id").(uint)
	if !ok {
		return 0, errors.New("unauthorized")
	}
	return v, nil
}

func paramUint(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(v), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// httpError maps service sentinel errors onto status codes.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStock):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
