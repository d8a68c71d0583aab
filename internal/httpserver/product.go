package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
	"github.com/tranvm/luxora/internal/service"
	"github.com/tranvm/luxora/internal/transport"
	"github.com/tranvm/luxora/internal/util"
)

type ProductHTTP struct {
	Svc    *service.CatalogService
	Viewed *service.ViewedService
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	filter := repo.ProductFilter{
		CategorySlug: c.QueryParam("category"),
		ColorID:      uint(parseIntDefault(c.QueryParam("color"), 0)),
	}

	products, total, err := h.Svc.ListProducts(ctx, filter, limit, offset)
	if err != nil {
		l.Error("product_list_error", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": products,
		"meta": transport.PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	p, err := h.Svc.ProductBySlug(ctx, c.Param("slug"))
	if err != nil {
		l.Warn("product_get_error", "slug", c.Param("slug"), "error", err)
		return httpError(err)
	}

	if h.Viewed != nil {
		h.Viewed.Record(ctx, identityFrom(c), p.ID)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		l.Warn("product_create_error", "error", err)
		return httpError(err)
	}
	l.Info("product_created", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		l.Warn("product_update_error", "product_id", id, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		l.Warn("product_delete_error", "product_id", id, "error", err)
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) AddImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.add_image")

	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		URL      string `json:"url" form:"url"`
		Position uint   `json:"position" form:"position"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	img, err := h.Svc.AddImage(ctx, id, req.URL, req.Position)
	if err != nil {
		l.Warn("product_add_image_error", "product_id", id, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *ProductHTTP) ListCategories(c echo.Context) error {
	cats, err := h.Svc.ListCategories(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *ProductHTTP) CreateCategory(c echo.Context) error {
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	cat, err := h.Svc.SaveCategory(c.Request().Context(), 0, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *ProductHTTP) UpdateCategory(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	cat, err := h.Svc.SaveCategory(c.Request().Context(), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *ProductHTTP) DeleteCategory(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.Svc.DeleteCategory(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) ListColors(c echo.Context) error {
	colors, err := h.Svc.ListColors(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, colors)
}

func (h *ProductHTTP) CreateColor(c echo.Context) error {
	var req transport.ColorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	color, err := h.Svc.SaveColor(c.Request().Context(), 0, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, color)
}

func (h *ProductHTTP) DeleteColor(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.Svc.DeleteColor(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) RecentlyViewed(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.Viewed.List(ctx, identityFrom(c))
	if err != nil {
		return httpError(err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(http.StatusOK, products)
}
