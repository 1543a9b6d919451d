// Package cache declares the byte cache the services read through, plus JSON
// helpers on top of it.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Bytes interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Key joins parts with ':' under the application prefix. Tenant-owned entries
// must pass the company id as the first part.
func Key(parts ...string) string {
	return "freightdesk:" + strings.Join(parts, ":")
}

// GetJSON reads key into a fresh T. A decode failure is reported as a miss
// so a stale layout never breaks reads.
func GetJSON[T any](ctx context.Context, c Bytes, key string) (*T, bool, error) {
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false, nil
	}
	return &v, true, nil
}

func SetJSON(ctx context.Context, c Bytes, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal cache value")
	}
	return c.Set(ctx, key, b, ttl)
}
