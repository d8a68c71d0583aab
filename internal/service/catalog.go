package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/events"
	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
	"github.com/tranvm/luxora/internal/transport"
)

// ProductIndexer mirrors catalog writes into the search index; nil
// disables indexing (tests, degraded mode).
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndexer
	Events Publisher
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, limit, offset int) ([]models.Product, int64, error) {
	return s.Repo.ListProducts(ctx, f, limit, offset)
}

func (s *CatalogService) ProductBySlug(ctx context.Context, productSlug string) (*models.Product, error) {
	p, err := s.Repo.ProductBySlug(ctx, productSlug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product not found: %w", ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}

	p := &models.Product{
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	var err error
	p.Categories, p.Colors, err = s.relations(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.syncIndex(ctx, p, false)
	s.publishProduct(ctx, p.ID, map[string]any{
		"type": "product_created", "product_id": p.ID, "name": p.Name,
	})
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.ProductRequest) (*models.Product, error) {
	p, err := s.Repo.ProductByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Stock = req.Stock
	if p.Slug == "" {
		p.Slug = slug.Make(req.Name)
	}
	p.Categories, p.Colors, err = s.relations(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}

	s.syncIndex(ctx, p, false)
	s.publishProduct(ctx, p.ID, map[string]any{
		"type": "product_updated", "product_id": p.ID, "name": p.Name,
	})
	return p, nil
}

// DeleteProduct removes the product from the catalog; order history
// keeps its snapshots.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.Repo.ProductByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.syncIndex(ctx, &models.Product{ID: id}, true)
	s.publishProduct(ctx, id, map[string]any{
		"type": "product_deleted", "product_id": id,
	})
	return nil
}

func (s *CatalogService) AddImage(ctx context.Context, productID uint, url string, position uint) (*models.ProductImage, error) {
	if url == "" {
		return nil, fmt.Errorf("url required: %w", ErrValidation)
	}
	if _, err := s.Repo.ProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return nil, err
	}
	img := &models.ProductImage{ProductID: productID, URL: url, Position: position}
	if err := s.Repo.AddProductImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) SaveCategory(ctx context.Context, id uint, req transport.CategoryRequest) (*models.Category, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	cat := &models.Category{ID: id, Name: req.Name, Position: req.Position}
	cat.Slug = slug.Make(req.Name)
	if err := s.Repo.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.Repo.DeleteCategory(ctx, id)
}

func (s *CatalogService) ListColors(ctx context.Context) ([]models.Color, error) {
	return s.Repo.ListColors(ctx)
}

func (s *CatalogService) SaveColor(ctx context.Context, id uint, req transport.ColorRequest) (*models.Color, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	color := &models.Color{ID: id, Name: req.Name, Hex: req.Hex}
	if err := s.Repo.SaveColor(ctx, color); err != nil {
		return nil, err
	}
	return color, nil
}

func (s *CatalogService) DeleteColor(ctx context.Context, id uint) error {
	return s.Repo.DeleteColor(ctx, id)
}

func (s *CatalogService) relations(ctx context.Context, req transport.ProductRequest) ([]models.Category, []models.Color, error) {
	cats := make([]models.Category, 0, len(req.CategoryIDs))
	for _, id := range req.CategoryIDs {
		cats = append(cats, models.Category{ID: id})
	}
	colors := make([]models.Color, 0, len(req.ColorIDs))
	for _, id := range req.ColorIDs {
		colors = append(colors, models.Color{ID: id})
	}
	return cats, colors, nil
}

// syncIndex is best effort: search lags behind the catalog rather than
// failing the write.
func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product, deleted bool) {
	if s.Index == nil {
		return
	}
	var err error
	if deleted {
		err = s.Index.DeleteProduct(ctx, p.ID)
	} else {
		err = s.Index.IndexProduct(ctx, p)
	}
	if err != nil {
		logging.FromContext(ctx).Error("search index sync failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publishProduct(ctx context.Context, id uint, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicProduct, fmt.Sprint(id), event); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "topic", events.TopicProduct, "error", err)
	}
}
