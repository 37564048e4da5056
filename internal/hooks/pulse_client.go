package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

// RedisStreamClient adapts a Redis connection to StreamClient using
// goa.design/pulse streams, one Pulse stream per mission.
type RedisStreamClient struct {
	redis  *redis.Client
	maxLen int
}

// NewRedisStreamClient constructs a StreamClient backed by redisClient.
// maxLen bounds the number of entries Pulse retains per mission stream; zero
// uses Pulse's default retention.
func NewRedisStreamClient(redisClient *redis.Client, maxLen int) (*RedisStreamClient, error) {
	if redisClient == nil {
		return nil, errors.New("hooks: redis client is required")
	}
	return &RedisStreamClient{redis: redisClient, maxLen: maxLen}, nil
}

// Stream returns a handle to the named Pulse stream, creating it if needed.
func (c *RedisStreamClient) Stream(name string) (Stream, error) {
	var opts []streamopts.Stream
	if c.maxLen > 0 {
		opts = append(opts, streamopts.WithStreamMaxLen(c.maxLen))
	}
	str, err := streaming.NewStream(name, c.redis, opts...)
	if err != nil {
		return nil, fmt.Errorf("hooks: open pulse stream %s: %w", name, err)
	}
	return redisStream{stream: str}, nil
}

type redisStream struct {
	stream *streaming.Stream
}

func (s redisStream) Add(ctx context.Context, event string, payload []byte) (string, error) {
	return s.stream.Add(ctx, event, payload)
}
