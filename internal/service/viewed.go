package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
)

const (
	viewedMax = 10
	viewedTTL = 30 * 24 * time.Hour
)

// ViewedService keeps a per-identity list of recently viewed products
// in redis, newest first, capped at viewedMax. Redis being down only
// costs the feature, never the request.
type ViewedService struct {
	RDB  *redis.Client
	Repo *repo.GormRepo
}

func (s *ViewedService) key(id Identity) string {
	return "viewed:" + id.Key()
}

// Record notes that the identity looked at the product.
func (s *ViewedService) Record(ctx context.Context, id Identity, productID uint) {
	if s.RDB == nil || (id.UserID == nil && id.CartToken == "") {
		return
	}
	key := s.key(id)
	member := strconv.FormatUint(uint64(productID), 10)

	pipe := s.RDB.TxPipeline()
	pipe.LRem(ctx, key, 0, member)
	pipe.LPush(ctx, key, member)
	pipe.LTrim(ctx, key, 0, viewedMax-1)
	pipe.Expire(ctx, key, viewedTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logging.FromContext(ctx).Warn("viewed record failed", "error", err)
	}
}

// List returns the identity's recently viewed products, newest first.
func (s *ViewedService) List(ctx context.Context, id Identity) ([]models.Product, error) {
	if s.RDB == nil || (id.UserID == nil && id.CartToken == "") {
		return nil, nil
	}

	members, err := s.RDB.LRange(ctx, s.key(id), 0, viewedMax-1).Result()
	if err != nil {
		logging.FromContext(ctx).Warn("viewed list failed", "error", err)
		return nil, nil
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		v, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(v))
	}

	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// keep redis order, products may be deleted meanwhile
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]models.Product, 0, len(ids))
	for _, pid := range ids {
		if p, ok := byID[pid]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}
