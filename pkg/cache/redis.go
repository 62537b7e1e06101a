package cache

import (
	"context"
	"fmt"
	"time"

	"trivia-service/config"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisClient(cfg *config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		config: cfg,
	}, nil
}

func (c *RedisClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// Publish sends payload to every subscriber of channel. Delivery is
// at-least-once from the subscriber's perspective; ordering holds only
// among messages from a single publisher.
func (c *RedisClient) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.client.Publish(ctx, channel, payload).Err()
}

// Subscribe returns a message channel for the given pub/sub channel and a
// close function. No message is delivered after the close function returns.
func (c *RedisClient) Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error) {
	pubsub := c.client.Subscribe(ctx, channel)

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			out <- []byte(msg.Payload)
		}
	}()

	return out, pubsub.Close
}

const showResultsTTL = 24 * time.Hour

func showResultsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:show_results", sessionID)
}

// SetShowResults records the ephemeral reveal flag for a session.
func (c *RedisClient) SetShowResults(ctx context.Context, sessionID string, show bool) error {
	if !show {
		return c.client.Del(ctx, showResultsKey(sessionID)).Err()
	}
	return c.client.Set(ctx, showResultsKey(sessionID), "1", showResultsTTL).Err()
}

// GetShowResults reports whether answers for the current question have been
// revealed. A missing key means not revealed.
func (c *RedisClient) GetShowResults(ctx context.Context, sessionID string) (bool, error) {
	val, err := c.client.Get(ctx, showResultsKey(sessionID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "1", nil
}

func (c *RedisClient) GetClient() *redis.Client {
	return c.client
}
