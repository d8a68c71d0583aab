package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	Auth    *AuthHTTP
	Cart    *CartHTTP
	Order   *OrderHTTP
	Address *AddressHTTP
	Product *ProductHTTP
	Search  *SearchHTTP
	Tokens  *TokenMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.Auth.Register)
	v1.POST("/login", d.Auth.Login)
	v1.POST("/logout", d.Auth.Logout)

	v1.GET("/products", d.Product.List)
	v1.GET("/products/:slug", d.Product.Get, d.Tokens.OptionalAuth)
	v1.GET("/categories", d.Product.ListCategories)
	v1.GET("/colors", d.Product.ListColors)
	if d.Search != nil {
		v1.GET("/search", d.Search.Search)
	}
	v1.GET("/viewed", d.Product.RecentlyViewed, d.Tokens.OptionalAuth)

	// cart works for both logged-in users and anonymous visitors; the
	// merge of a pre-login cart happens on first resolution after login
	cart := v1.Group("/cart", d.Tokens.OptionalAuth)
	cart.GET("", d.Cart.GetCart)
	cart.POST("/add", d.Cart.Add)
	cart.POST("/update", d.Cart.Update)
	cart.POST("/remove", d.Cart.Remove)

	orders := v1.Group("/orders")
	orders.POST("/checkout", d.Order.Checkout, d.Tokens.OptionalAuth)
	orders.GET("", d.Order.List, d.Tokens.RequireAuth)
	orders.GET("/:id", d.Order.Get, d.Tokens.RequireAuth)
	orders.POST("/:id/cancel", d.Order.Cancel, d.Tokens.RequireAuth)

	addresses := v1.Group("/accounts/addresses", d.Tokens.RequireAuth)
	addresses.GET("", d.Address.List)
	addresses.POST("", d.Address.Create)
	addresses.PUT("/:id", d.Address.Update)
	addresses.DELETE("/:id", d.Address.Delete)
	addresses.POST("/:id/default", d.Address.SetDefault)

	admin := v1.Group("/admin", d.Tokens.RequireAdmin)
	admin.POST("/products", d.Product.Create)
	admin.PATCH("/products/:id", d.Product.Update)
	admin.DELETE("/products/:id", d.Product.Delete)
	admin.POST("/products/:id/images", d.Product.AddImage)
	admin.POST("/categories", d.Product.CreateCategory)
	admin.PATCH("/categories/:id", d.Product.UpdateCategory)
	admin.DELETE("/categories/:id", d.Product.DeleteCategory)
	admin.POST("/colors", d.Product.CreateColor)
	admin.DELETE("/colors/:id", d.Product.DeleteColor)
}
