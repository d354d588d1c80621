package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"booking-system/internal/config"
	"booking-system/internal/logger"

	"github.com/go-redis/redis/v8"
)

// Client представляет клиент Redis
type Client struct {
	client *redis.Client
	log    *logger.Logger
}

// Connect создает подключение к Redis
func Connect(cfg *config.RedisConfig, log *logger.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Проверка подключения
	ctx := context.Background()
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Successfully connected to Redis")

	return &Client{
		client: rdb,
		log:    log,
	}, nil
}

// Close закрывает подключение к Redis
func (c *Client) Close() error {
	return c.client.Close()
}

// GetClient возвращает низкоуровневый клиент для pipeline и Lua операций
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// Set устанавливает значение с TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = c.client.Set(ctx, key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	c.log.WithField("key", key).Debug("Value set in Redis")
	return nil
}

// Get получает значение по ключу
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key %s not found", key)
		}
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}

	err = json.Unmarshal([]byte(val), dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
	}

	c.log.WithField("key", key).Debug("Value retrieved from Redis")
	return nil
}

// Delete удаляет значение по ключу
func (c *Client) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	c.log.WithField("key", key).Debug("Key deleted from Redis")
	return nil
}

// Exists проверяет существование ключа
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if key %s exists: %w", key, err)
	}

	return exists > 0, nil
}

// GeoAdd добавляет или обновляет позицию участника в GEO-множестве
func (c *Client) GeoAdd(ctx context.Context, key, member string, lat, lon float64) error {
	err := c.client.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      member,
		Latitude:  lat,
		Longitude: lon,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to geoadd member %s to %s: %w", member, key, err)
	}

	c.log.WithField("key", key).WithField("member", member).Debug("Member added to geo set")
	return nil
}

// GeoRemove удаляет участника из GEO-множества
// (GEO-множество хранится как sorted set, поэтому ZREM)
func (c *Client) GeoRemove(ctx context.Context, key, member string) error {
	err := c.client.ZRem(ctx, key, member).Err()
	if err != nil {
		return fmt.Errorf("failed to remove member %s from %s: %w", member, key, err)
	}

	c.log.WithField("key", key).WithField("member", member).Debug("Member removed from geo set")
	return nil
}

// GeoRadius возвращает участников GEO-множества в радиусе radiusMeters
// от точки (lat, lon)
func (c *Client) GeoRadius(ctx context.Context, key string, lat, lon, radiusMeters float64) ([]string, error) {
	locations, err := c.client.GeoRadius(ctx, key, lon, lat, &redis.GeoRadiusQuery{
		Radius: radiusMeters,
		Unit:   "m",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query geo radius on %s: %w", key, err)
	}

	members := make([]string, 0, len(locations))
	for _, loc := range locations {
		members = append(members, loc.Name)
	}

	return members, nil
}

// Health проверяет состояние Redis
func (c *Client) Health(ctx context.Context) error {
	_, err := c.client.Ping(ctx).Result()
	return err
}
