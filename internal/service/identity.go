package service

import (
	"context"
	"strconv"
)

// Identity is the acting party of a request: an authenticated user, an
// anonymous visitor holding a cart token cookie, or both right after
// login (which is when carts get merged).
type Identity struct {
	UserID    *uint
	CartToken string
}

func (id Identity) Authenticated() bool { return id.UserID != nil }

// Key is the stable identifier used for per-identity state such as the
// recently-viewed list.
func (id Identity) Key() string {
	if id.UserID != nil {
		return "u:" + strconv.FormatUint(uint64(*id.UserID), 10)
	}
	return "t:" + id.CartToken
}

// Publisher sends domain events; nil disables publishing (tests).
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
