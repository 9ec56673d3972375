package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

// Redis stores each slot under "<prefix>:<device>:<slot>".
type Redis struct {
	client *redis.Client
	prefix string
}

// ParseRedisURL validates a Redis connection URL.
func ParseRedisURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return opts, nil
}

// NewRedis connects to url and pings it.
func NewRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	opts, err := ParseRedisURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) key(device string, slot engine.Slot) string {
	return r.prefix + ":" + device + ":" + string(slot)
}

func (r *Redis) Get(ctx context.Context, device string, slot engine.Slot) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(device, slot)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s/%s: %w", device, slot, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, device string, slot engine.Slot, value string) error {
	if err := r.client.Set(ctx, r.key(device, slot), value, 0).Err(); err != nil {
		return fmt.Errorf("set %s/%s: %w", device, slot, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, device string, slot engine.Slot) error {
	if err := r.client.Del(ctx, r.key(device, slot)).Err(); err != nil {
		return fmt.Errorf("clear %s/%s: %w", device, slot, err)
	}
	return nil
}

func (r *Redis) Check(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
