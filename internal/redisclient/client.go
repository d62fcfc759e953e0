package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/next_sequence.lua
var nextSequenceScript string

//go:embed scripts/hdecr_floor.lua
var hdecrFloorScript string

//go:embed scripts/decr_floor.lua
var decrFloorScript string

type Client struct {
	rdb            *redis.Client
	sequenceScript *redis.Script
	hdecrScript    *redis.Script
	decrScript     *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:            rdb,
		sequenceScript: redis.NewScript(nextSequenceScript),
		hdecrScript:    redis.NewScript(hdecrFloorScript),
		decrScript:     redis.NewScript(decrFloorScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// NextSequence atomically bumps the stored sequence to
// max(stored, floor) + 1 and returns the new value. This is the primary
// path for booking ID issuance; the whole compute-and-set runs inside
// one Lua invocation so concurrent callers can never observe the same
// value.
func (c *Client) NextSequence(ctx context.Context, key string, floor int64) (int64, error) {
	result, err := c.sequenceScript.Run(ctx, c.rdb, []string{key}, floor).Result()
	if err != nil {
		return 0, fmt.Errorf("next sequence script failed: %w", err)
	}

	seq, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type %T", result)
	}
	return seq, nil
}

// DecrFieldFloor decrements a hash field, clamping at zero.
func (c *Client) DecrFieldFloor(ctx context.Context, key, field string) error {
	if _, err := c.hdecrScript.Run(ctx, c.rdb, []string{key}, field).Result(); err != nil {
		return fmt.Errorf("hdecr floor script failed: %w", err)
	}
	return nil
}

// DecrKeyFloor decrements a plain counter key, clamping at zero.
func (c *Client) DecrKeyFloor(ctx context.Context, key string) error {
	if _, err := c.decrScript.Run(ctx, c.rdb, []string{key}).Result(); err != nil {
		return fmt.Errorf("decr floor script failed: %w", err)
	}
	return nil
}
