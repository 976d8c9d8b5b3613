package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/checkoutlab/hips-checkout/internal/checkout"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "checkout:session:"
	orderKeyKeyPrefix = "checkout:orderkey:"
)

// RedisSessionModel holds checkout sessions under the shopper session id,
// plus a reverse index from order key to shopper session so the webhook path
// can clear correlation state without a browser session.
type RedisSessionModel struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionModel(rdb *redis.Client, ttl time.Duration) *RedisSessionModel {
	return &RedisSessionModel{rdb: rdb, ttl: ttl}
}

func sessionKey(shopperSessionID string) string {
	return sessionKeyPrefix + shopperSessionID
}

func orderKeyKey(orderKey string) string {
	return orderKeyKeyPrefix + orderKey
}

func (m *RedisSessionModel) Set(ctx context.Context, shopperSessionID string, session *checkout.Session) error {
	data, err := json.Marshal(session)

	if err != nil {
		return fmt.Errorf("failed to marshal checkout session: %w", err)
	}

	pipe := m.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(shopperSessionID), data, m.ttl)
	pipe.Set(ctx, orderKeyKey(session.OrderKey), shopperSessionID, m.ttl)

	_, err = pipe.Exec(ctx)
	return err
}

func (m *RedisSessionModel) Get(ctx context.Context, shopperSessionID string) (*checkout.Session, error) {
	data, err := m.rdb.Get(ctx, sessionKey(shopperSessionID)).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, checkout.ErrSessionNotFound
		}
		return nil, err
	}

	var session checkout.Session

	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	return &session, nil
}

func (m *RedisSessionModel) Delete(ctx context.Context, shopperSessionID string) error {
	session, err := m.Get(ctx, shopperSessionID)

	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := m.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(shopperSessionID))
	pipe.Del(ctx, orderKeyKey(session.OrderKey))

	_, err = pipe.Exec(ctx)
	return err
}

func (m *RedisSessionModel) DeleteByOrderKey(ctx context.Context, orderKey string) error {
	shopperSessionID, err := m.rdb.Get(ctx, orderKeyKey(orderKey)).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	pipe := m.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(shopperSessionID))
	pipe.Del(ctx, orderKeyKey(orderKey))

	_, err = pipe.Exec(ctx)
	return err
}
