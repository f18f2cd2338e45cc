package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

// Cooldown is a cross-instance rate gate. Allow claims a key with SETNX;
// the claim expires on its own, so a crashed worker never wedges the gate.
type Cooldown interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}

type cooldown struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewCooldown(log *logger.Logger) (Cooldown, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_COOLDOWN_PREFIX"))
	if prefix == "" {
		prefix = "cooldown"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &cooldown{
		log:    log.With("client", "Cooldown"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (c *cooldown) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	full := c.prefix + ":" + key
	ok, err := c.rdb.SetNX(ctx, full, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (c *cooldown) Close() error {
	return c.rdb.Close()
}
