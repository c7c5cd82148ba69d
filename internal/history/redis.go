package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/adjutant-ai/adjutant/internal/provider"
)

// RedisSessionStore keeps session message logs in a Redis list per
// session, trimmed server-side so multiple instances share one bound.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	maxLen int64 // 0 = no cap
}

// NewRedisSessionStore connects to addr and verifies the connection.
func NewRedisSessionStore(ctx context.Context, addr, password string, db, maxLen int) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis session store: ping %s: %w", addr, err)
	}
	return &RedisSessionStore{client: client, prefix: "adjutant:session:", maxLen: int64(maxLen)}, nil
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisSessionStore) Messages(ctx context.Context, sessionID string) ([]provider.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis session store: read %s: %w", sessionID, err)
	}
	msgs := make([]provider.Message, 0, len(raw))
	for _, item := range raw {
		var m provider.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("redis session store: decode message in %s: %w", sessionID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, msg provider.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis session store: encode message: %w", err)
	}
	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, key, -s.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis session store: append to %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis session store: clear %s: %w", sessionID, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
