package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/models"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategorySlug string
	ColorID      uint
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, limit, offset int) ([]models.Product, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})

	if f.CategorySlug != "" {
		q = q.Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Joins("JOIN categories c ON c.id = pc.category_id").
			Where("c.slug = ?", f.CategorySlug)
	}
	if f.ColorID != 0 {
		q = q.Joins("JOIN product_colors pcl ON pcl.product_id = products.id").
			Where("pcl.color_id = ?", f.ColorID)
	}

	// branch the query, Count's column selection must not leak into Find
	var total int64
	if err := q.Session(&gorm.Session{}).Distinct("products.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := q.Session(&gorm.Session{}).Distinct().
		Preload("Images").Preload("Colors").
		Order("products.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *GormRepo) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).
		Preload("Categories").Preload("Colors").Preload("Images").
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).
		Preload("Categories").Preload("Colors").Preload("Images").
		Where("slug = ?", slug).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.DB.WithContext(ctx).
		Preload("Images").
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(p).Association("Categories").Replace(p.Categories); err != nil {
			return err
		}
		if err := tx.Model(p).Association("Colors").Replace(p.Colors); err != nil {
			return err
		}
		return tx.Save(p).Error
	})
}

// DeleteProduct removes the product and detaches it from order history:
// order items keep their snapshots, only the live link is nulled.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OrderItem{}).
			Where("product_id = ?", id).
			Update("product_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Select("Categories", "Colors").Delete(&models.Product{ID: id}).Error
	})
}

func (r *GormRepo) AddProductImage(ctx context.Context, img *models.ProductImage) error {
	return r.DB.WithContext(ctx).Create(img).Error
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.DB.WithContext(ctx).
		Order("position ASC").Order("name ASC").
		Find(&cats).Error
	if err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) SaveCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Save(cat).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Category{}, id).Error
}

func (r *GormRepo) ListColors(ctx context.Context) ([]models.Color, error) {
	var colors []models.Color
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&colors).Error; err != nil {
		return nil, err
	}
	return colors, nil
}

func (r *GormRepo) ColorByID(ctx context.Context, id uint) (*models.Color, error) {
	var color models.Color
	if err := r.DB.WithContext(ctx).First(&color, id).Error; err != nil {
		return nil, err
	}
	return &color, nil
}

func (r *GormRepo) SaveColor(ctx context.Context, color *models.Color) error {
	return r.DB.WithContext(ctx).Save(color).Error
}

func (r *GormRepo) DeleteColor(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Color{}, id).Error
}
