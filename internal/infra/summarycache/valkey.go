package summarycache

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/meeting-summarizer/internal/domain/summary"
)

// ValkeyStore keeps the summary cache in a Valkey-compatible database so the
// TTL is enforced server-side and cache state survives process restarts.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "summary"
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

// Get implements summary.Store; a nil reply is a miss.
func (s *ValkeyStore) Get(ctx context.Context, key string) (string, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	text, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

// Set implements summary.Store with a server-side expiry.
func (s *ValkeyStore) Set(ctx context.Context, key, summaryText string) error {
	cmd := s.client.B().Set().Key(s.entryKey(key)).Value(summaryText).Ex(s.ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return s.prefix + ":" + key
}

var _ summary.Store = (*ValkeyStore)(nil)
