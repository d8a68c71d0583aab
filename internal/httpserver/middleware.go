package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/service"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
	cartCookie    = "cartToken"
)

// TokenMiddleware authenticates requests from the access cookie and
// transparently rotates an expired pair from the refresh cookie.
type TokenMiddleware struct {
	Auth *service.AuthService
}

// authenticate fills user_id/role into the echo context. Returns false
// when no valid identity could be established.
func (m *TokenMiddleware) authenticate(c echo.Context) bool {
	if ck, err := c.Cookie(accessCookie); err == nil && ck.Value != "" {
		if userID, role, err := service.ParseAccessToken(ck.Value, m.Auth.JWTSecret); err == nil {
			c.Set("user_id", userID)
			c.Set("role", role)
			return true
		}
	}

	ck, err := c.Cookie(refreshCookie)
	if err != nil || ck.Value == "" {
		return false
	}
	pair, userID, role, err := m.Auth.Rotate(c.Request().Context(), ck.Value)
	if err != nil {
		return false
	}
	c.SetCookie(CreateCookie(accessCookie, pair.Access, time.Now().Add(service.AccessTokenTTL)))
	c.SetCookie(CreateCookie(refreshCookie, pair.Refresh, time.Now().Add(service.RefreshTokenTTL)))
	c.Set("user_id", userID)
	c.Set("role", role)
	return true
}

// OptionalAuth establishes identity when cookies allow it and lets
// anonymous requests through; cart and checkout paths accept both.
func (m *TokenMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		m.authenticate(c)
		return next(c)
	}
}

func (m *TokenMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.authenticate(c) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return next(c)
	}
}

func (m *TokenMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.authenticate(c) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if role, _ := c.Get("role").(string); role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin only")
		}
		return next(c)
	}
}

func CreateCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expireCookie(name string) *http.Cookie {
	return CreateCookie(name, "", time.Now().Add(-time.Hour))
}

// WithLogger puts a request-scoped logger into the request context so
// services can pick it up via logging.FromContext.
func WithLogger(l *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rl := l.With("method", req.Method, "path", req.URL.Path)
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), rl)))
			return next(c)
		}
	}
}
