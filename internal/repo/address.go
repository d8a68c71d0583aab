package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/models"
)

func (r *GormRepo) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var addrs []models.Address
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").Order("id DESC").
		Find(&addrs).Error
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

func (r *GormRepo) GetAddress(ctx context.Context, id, userID uint) (*models.Address, error) {
	var addr models.Address
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *GormRepo) DefaultAddress(ctx context.Context, userID uint) (*models.Address, error) {
	var addr models.Address
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// SaveAddress creates or updates an address. When the address is
// default, every other default of the same user is cleared in the same
// transaction; callers must not bypass this with bulk updates.
func (r *GormRepo) SaveAddress(ctx context.Context, addr *models.Address) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if addr.IsDefault {
			q := tx.Model(&models.Address{}).Where("user_id = ?", addr.UserID)
			if addr.ID != 0 {
				q = q.Where("id <> ?", addr.ID)
			}
			if err := q.Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(addr).Error
	})
}

// SetDefaultAddress marks one address default and clears the rest.
func (r *GormRepo) SetDefaultAddress(ctx context.Context, id, userID uint) (*models.Address, error) {
	var addr models.Address
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&addr).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Address{}).
			Where("user_id = ? AND id <> ?", userID, id).
			Update("is_default", false).Error; err != nil {
			return err
		}
		addr.IsDefault = true
		return tx.Model(&addr).Update("is_default", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// DeleteAddress removes the address; if it was the default, the most
// recently created remaining address takes over.
func (r *GormRepo) DeleteAddress(ctx context.Context, id, userID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var addr models.Address
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&addr).Error; err != nil {
			return err
		}
		if err := tx.Delete(&addr).Error; err != nil {
			return err
		}
		if !addr.IsDefault {
			return nil
		}
		var next models.Address
		err := tx.Where("user_id = ?", userID).Order("id DESC").First(&next).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
}
