package cache

import (
	"time"

	"github.com/checkoutlab/hips-checkout/internal/checkout"
	"github.com/redis/go-redis/v9"
)

type Storage struct {
	Sessions checkout.SessionStore
}

func NewRedisStorage(rdb *redis.Client, sessionTTL time.Duration) *Storage {
	return &Storage{
		Sessions: NewRedisSessionModel(rdb, sessionTTL),
	}
}
