package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/models"
)

// UserCart returns the user's cart, creating it on first access.
func (r *GormRepo) UserCart(ctx context.Context, userID uint, token string) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	cart = models.Cart{UserID: &userID, Token: token}
	if err := r.DB.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// TokenCart loads an anonymous cart by its token. Carts that have been
// claimed by a user are invisible here, a guessed token must not give
// access to someone else's cart.
func (r *GormRepo) TokenCart(ctx context.Context, token string) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).
		Where("token = ? AND user_id IS NULL", token).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) CreateAnonCart(ctx context.Context, token string) (*models.Cart, error) {
	cart := models.Cart{Token: token}
	if err := r.DB.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// MergeCarts folds the lines of src into dst: matching (product, color)
// lines have quantities summed, the rest move over, then src is deleted.
func (r *GormRepo) MergeCarts(ctx context.Context, srcID, dstID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var srcItems []models.CartItem
		if err := tx.Where("cart_id = ?", srcID).Find(&srcItems).Error; err != nil {
			return err
		}
		for _, it := range srcItems {
			var existing models.CartItem
			err := lineQuery(tx, dstID, it.ProductID, it.ColorID).First(&existing).Error
			switch {
			case err == nil:
				if err := tx.Model(&existing).
					Update("quantity", gorm.Expr("quantity + ?", it.Quantity)).Error; err != nil {
					return err
				}
				if err := tx.Delete(&it).Error; err != nil {
					return err
				}
			case err == gorm.ErrRecordNotFound:
				if err := tx.Model(&it).Update("cart_id", dstID).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}
		return tx.Delete(&models.Cart{}, srcID).Error
	})
}

func lineQuery(tx *gorm.DB, cartID, productID uint, colorID *uint) *gorm.DB {
	q := tx.Model(&models.CartItem{}).Where("cart_id = ? AND product_id = ?", cartID, productID)
	if colorID == nil {
		return q.Where("color_id IS NULL")
	}
	return q.Where("color_id = ?", *colorID)
}

// CartLines returns the cart's lines with products and colors preloaded.
func (r *GormRepo) CartLines(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB.WithContext(ctx).
		Preload("Product").Preload("Product.Images").Preload("Color").
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddLine increments an existing (product, color) line or creates one.
func (r *GormRepo) AddLine(ctx context.Context, cartID, productID uint, colorID *uint, qty uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := lineQuery(tx, cartID, productID, colorID).
			Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		item := models.CartItem{
			CartID:    cartID,
			ProductID: productID,
			ColorID:   colorID,
			Quantity:  qty,
		}
		return tx.Create(&item).Error
	})
}

// SetLineQuantity upserts the line's quantity; qty 0 removes the line.
func (r *GormRepo) SetLineQuantity(ctx context.Context, cartID, productID uint, colorID *uint, qty uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if qty == 0 {
			return lineQuery(tx, cartID, productID, colorID).Delete(&models.CartItem{}).Error
		}
		res := lineQuery(tx, cartID, productID, colorID).Update("quantity", qty)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		item := models.CartItem{
			CartID:    cartID,
			ProductID: productID,
			ColorID:   colorID,
			Quantity:  qty,
		}
		return tx.Create(&item).Error
	})
}

// RemoveLine deletes the matching line. Absent lines are not an error.
func (r *GormRepo) RemoveLine(ctx context.Context, cartID, productID uint, colorID *uint) error {
	return lineQuery(r.DB.WithContext(ctx), cartID, productID, colorID).
		Delete(&models.CartItem{}).Error
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
