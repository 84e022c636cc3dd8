package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"swapp/api/internal/logging"
)

// MockKeyTTL is how long a mock push stays readable.
const MockKeyTTL = 5 * time.Minute

// MockKey is the Redis key a RedisSender stores the latest push for a token under.
func MockKey(token string) string {
	return "mockpush:" + token
}

// RedisSender stores pushes in Redis instead of delivering them, so tests can
// read them back through the service API.
type RedisSender struct {
	client *redis.Client
}

func NewRedisSender(client *redis.Client) *RedisSender {
	return &RedisSender{client: client}
}

func (s *RedisSender) Send(ctx context.Context, msg Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}

	data, err := json.Marshal(map[string]any{
		"token":   msg.Token,
		"payload": json.RawMessage(payload),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push data: %w", err)
	}

	key := MockKey(msg.Token)
	if err := s.client.Set(ctx, key, data, MockKeyTTL).Err(); err != nil {
		return fmt.Errorf("failed to store push in Redis key '%s': %w", key, err)
	}
	logging.Debug().Str("key", key).Msg("mock push stored")
	return nil
}
