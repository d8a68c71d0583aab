package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/transport"
)

var errStockShort = errors.New("insufficient stock")

// Checkout turns a cart into an order inside one transaction: stock is
// checked under row locks, the order and its item snapshots are
// created, stock is decremented and the cart is emptied. A non-empty
// shortage list means nothing was written.
func (r *GormRepo) Checkout(ctx context.Context, cartID uint, ship transport.Shipping, payment string) (*models.Order, []transport.Shortage, error) {
	var (
		order     models.Order
		shortages []transport.Shortage
	)

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}

		var products []models.Product
		if err := lockForUpdate(tx).Where("id IN ?", ids).Find(&products).Error; err != nil {
			return err
		}
		byID := make(map[uint]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		// collect every violation before giving up, the caller reports
		// them together
		for _, it := range items {
			p, ok := byID[it.ProductID]
			if !ok {
				shortages = append(shortages, transport.Shortage{
					ProductID: it.ProductID,
					Name:      fmt.Sprintf("product #%d", it.ProductID),
					Requested: it.Quantity,
					Available: 0,
				})
				continue
			}
			if p.Stock != nil && int64(it.Quantity) > *p.Stock {
				shortages = append(shortages, transport.Shortage{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: it.Quantity,
					Available: uint(*p.Stock),
				})
			}
		}
		if len(shortages) > 0 {
			return errStockShort // rolls back; caller inspects shortages
		}

		order = models.Order{
			UserID:        ship.UserID,
			FullName:      ship.FullName,
			Phone:         ship.Phone,
			Address:       ship.Address,
			Status:        models.OrderStatusPending,
			PaymentMethod: payment,
		}

		total := decimal.Zero
		for _, it := range items {
			p := byID[it.ProductID]
			pid := p.ID
			line := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   &pid,
				ProductName: p.Name,
				UnitPrice:   p.Price,
				Quantity:    it.Quantity,
				LineTotal:   line,
			})
			total = total.Add(line)
		}
		order.Total = total

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, it := range items {
			p := byID[it.ProductID]
			if p.Stock == nil {
				continue
			}
			// floors at zero; the lock above makes an actual underflow
			// unreachable, the clamp keeps the invariant explicit
			err := tx.Model(&models.Product{}).
				Where("id = ?", p.ID).
				Update("stock", gorm.Expr(
					"CASE WHEN stock >= ? THEN stock - ? ELSE 0 END",
					it.Quantity, it.Quantity,
				)).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		// a user's cart is reused; an anonymous cart dies with its cookie
		return tx.Where("id = ? AND user_id IS NULL", cartID).Delete(&models.Cart{}).Error
	})

	if len(shortages) > 0 {
		return nil, shortages, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &order, nil, nil
}

// CancelOrder flips a pending/shipping order to cancelled and returns
// each item's quantity to its product's stock. The order row is locked
// so a concurrent cancel or fulfilment cannot double-credit stock.
func (r *GormRepo) CancelOrder(ctx context.Context, orderID uint, userID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).
			Where("id = ? AND user_id = ?", orderID, userID).
			First(&order).Error; err != nil {
			return err
		}

		if order.Status == models.OrderStatusCancelled {
			return ErrAlreadyCancelled
		}
		if !order.CanCancel() {
			return ErrNotCancellable
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}

		for _, it := range items {
			if it.ProductID == nil {
				continue // product deleted since purchase
			}
			var p models.Product
			err := lockForUpdate(tx).First(&p, *it.ProductID).Error
			if err == gorm.ErrRecordNotFound {
				continue
			}
			if err != nil {
				return err
			}
			if p.Stock == nil {
				continue
			}
			err = tx.Model(&models.Product{}).
				Where("id = ?", p.ID).
				Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&order).Update("status", models.OrderStatusCancelled).Error
	})
}

// ListOrders returns the user's orders, cancelled ones last, newest
// first within each group.
func (r *GormRepo) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END ASC").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
