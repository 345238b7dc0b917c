package cache

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/asset-lifecycle/internal/core/events"
)

// Cache holds short-lived copies of read models. Authoritative state always
// lives in the database; every mutation invalidates the keys it reports.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	// Generation reports a counter that Invalidate advances for key.
	Generation(ctx context.Context, key string) (uint64, error)
	// SetIfGeneration stores value only while key is still at gen.
	SetIfGeneration(ctx context.Context, key string, value interface{}, gen uint64) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Invalidator is implemented by events that carry invalidation keys.
type Invalidator interface {
	InvalidationKeys() []string
}

// InvalidateOnChange drops the keys reported by a committed change.
func InvalidateOnChange(c Cache, logger *slog.Logger) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		inv, ok := event.(Invalidator)
		if !ok {
			return nil
		}
		keys := inv.InvalidationKeys()
		if len(keys) == 0 {
			return nil
		}
		if err := c.Invalidate(ctx, keys...); err != nil {
			logger.WarnContext(ctx, "cache invalidation failed",
				"event_type", event.EventType(),
				"keys", keys,
				"error", err)
			return err
		}
		logger.DebugContext(ctx, "cache invalidated", "event_type", event.EventType(), "keys", keys)
		return nil
	}
}

// Fetch reads key from c or loads and stores it. Cache failures fall through
// to load. A value loaded while the key was invalidated is returned but not
// stored, so a commit racing the load cannot leave stale state behind.
func Fetch[T any](ctx context.Context, c Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var (
		out    T
		gen    uint64
		genErr error
	)
	if c != nil {
		if ok, err := c.Get(ctx, key, &out); err == nil && ok {
			return out, nil
		}
		gen, genErr = c.Generation(ctx, key)
	}
	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if c != nil && genErr == nil {
		_ = c.SetIfGeneration(ctx, key, out, gen)
	}
	return out, nil
}
