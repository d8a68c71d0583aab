package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
	"github.com/tranvm/luxora/internal/transport"
)

type AddressService struct {
	Repo *repo.GormRepo
}

func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Create(ctx context.Context, userID uint, req transport.AddressRequest) (*models.Address, error) {
	if err := validateAddress(req); err != nil {
		return nil, err
	}
	addr := &models.Address{
		UserID:     userID,
		FullName:   req.FullName,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	}
	if err := s.Repo.SaveAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id uint, req transport.AddressRequest) (*models.Address, error) {
	if err := validateAddress(req); err != nil {
		return nil, err
	}
	addr, err := s.Repo.GetAddress(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("address not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	addr.FullName = req.FullName
	addr.Phone = req.Phone
	addr.Line1 = req.Line1
	addr.Line2 = req.Line2
	addr.City = req.City
	addr.State = req.State
	addr.PostalCode = req.PostalCode
	addr.Country = req.Country
	addr.IsDefault = req.IsDefault

	if err := s.Repo.SaveAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

func (s *AddressService) Delete(ctx context.Context, userID, id uint) error {
	err := s.Repo.DeleteAddress(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("address not found: %w", ErrNotFound)
	}
	return err
}

func (s *AddressService) SetDefault(ctx context.Context, userID, id uint) (*models.Address, error) {
	addr, err := s.Repo.SetDefaultAddress(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("address not found: %w", ErrNotFound)
	}
	return addr, err
}

func validateAddress(req transport.AddressRequest) error {
	if req.FullName == "" {
		return fmt.Errorf("full_name required: %w", ErrValidation)
	}
	if req.Line1 == "" || req.City == "" {
		return fmt.Errorf("line1 and city required: %w", ErrValidation)
	}
	return nil
}
