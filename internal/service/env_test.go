package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a shared in-memory sqlite db only exists on one connection
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return &repo.GormRepo{DB: db}
}

func createProduct(t *testing.T, r *repo.GormRepo, name, price string, stock *int64) models.Product {
	t.Helper()
	p := models.Product{
		Name:  name,
		Slug:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, r.DB.Create(&p).Error)
	return p
}

func createColor(t *testing.T, r *repo.GormRepo, name string) models.Color {
	t.Helper()
	c := models.Color{Name: name}
	require.NoError(t, r.DB.Create(&c).Error)
	return c
}

func stockOf(t *testing.T, r *repo.GormRepo, productID uint) *int64 {
	t.Helper()
	var p models.Product
	require.NoError(t, r.DB.First(&p, productID).Error)
	return p.Stock
}

func cartLines(t *testing.T, r *repo.GormRepo, cartID uint) []models.CartItem {
	t.Helper()
	items, err := r.CartLines(context.Background(), cartID)
	require.NoError(t, err)
	return items
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func int64p(v int64) *int64 { return &v }

func userRef(v uint) *uint { return &v }
