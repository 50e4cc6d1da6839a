package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	URL      string
	Password string
}

// NewClient connects and pings Redis. URL may be a bare host:port or a redis:// URL.
func NewClient(ctx context.Context, opts Options, log *zap.SugaredLogger) (*redis.Client, error) {
	redisOpts, err := parseOptions(opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", redisOpts.Addr, err)
	}

	log.Infof("[REDIS] Connected successfully to %s", redisOpts.Addr)
	return client, nil
}

func parseOptions(opts Options) (*redis.Options, error) {
	if opts.URL == "" {
		opts.URL = "localhost:6379"
	}

	var redisOpts *redis.Options
	if strings.Contains(opts.URL, "://") {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisOpts = parsed
	} else {
		redisOpts = &redis.Options{Addr: opts.URL}
	}

	if opts.Password != "" {
		redisOpts.Password = opts.Password
	}
	return redisOpts, nil
}
