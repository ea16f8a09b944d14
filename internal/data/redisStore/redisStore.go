package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/pkg/logging"
)

// Store wraps one redis logical database. Callers construct the stores they
// need in main and pass them down; there is no process-wide registry.
type Store struct {
	client *redis.Client
	logger *logging.Logger
}

// New connects to the configured redis instance and pings it before
// returning. The caller owns the lifetime; Close on shutdown.
func New(ctx context.Context, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  config.RedisAddress(),
		Password:              config.RedisPassword,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis db %d unreachable: %w", db, err)
	}

	return &Store{
		client: client,
		logger: logging.NewLogger(fmt.Sprintf("redis[%d]", db)),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// NewTestStore wraps an externally created client, e.g. one pointed at
// miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logging.NewLogger("redis[test]"),
	}
}
