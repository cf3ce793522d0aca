package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tableserve/internal/domain"

	"github.com/redis/go-redis/v9"
)

const menuTTL = 10 * time.Minute

// RedisMenuCache keeps the assembled per-hotel menu hot so the QR scan
// bootstrap does not hit Postgres on every seat-down.
type RedisMenuCache struct {
	Client *redis.Client
}

func NewRedisMenuCache(client *redis.Client) *RedisMenuCache {
	return &RedisMenuCache{Client: client}
}

func menuKey(hotelID int) string {
	return fmt.Sprintf("menu:%d", hotelID)
}

// GetMenu returns (nil, nil) on a cache miss.
func (c *RedisMenuCache) GetMenu(ctx context.Context, hotelID int) (*domain.Menu, error) {
	data, err := c.Client.Get(ctx, menuKey(hotelID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewServerError("failed to read menu cache", err)
	}

	var menu domain.Menu
	if err := json.Unmarshal(data, &menu); err != nil {
		return nil, domain.NewServerError("failed to decode cached menu", err)
	}
	return &menu, nil
}

func (c *RedisMenuCache) SetMenu(ctx context.Context, hotelID int, menu *domain.Menu) error {
	data, err := json.Marshal(menu)
	if err != nil {
		return domain.NewServerError("failed to encode menu", err)
	}
	if err := c.Client.Set(ctx, menuKey(hotelID), data, menuTTL).Err(); err != nil {
		return domain.NewServerError("failed to write menu cache", err)
	}
	return nil
}

func (c *RedisMenuCache) InvalidateMenu(ctx context.Context, hotelID int) error {
	if err := c.Client.Del(ctx, menuKey(hotelID)).Err(); err != nil {
		return domain.NewServerError("failed to invalidate menu cache", err)
	}
	return nil
}
