package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/ports"
	"github.com/samirrijal/citygrid/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/citygrid/internal/core/usecases")

// Cache TTLs in seconds.
const (
	recordTTL = 600
	latestTTL = 60
)

// Page bounds shared by the list operations.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	return offset, limit
}

// validGrid reports whether raw is present, valid JSON and not null.
func validGrid(v *domain.ValidationError, raw json.RawMessage) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		v.Add("grid_data", "this field is required")
	case bytes.Equal(trimmed, []byte("null")):
		v.Add("grid_data", "this field may not be null")
	case !json.Valid(trimmed):
		v.Add("grid_data", "value must be valid JSON")
	}
}

func validDimension(v *domain.ValidationError, field string, n int) {
	if n < 0 {
		v.Add(field, "ensure this value is greater than or equal to 0")
	}
}

func validString(v *domain.ValidationError, field, s string, max int) {
	if s == "" {
		v.Add(field, "this field may not be blank")
		return
	}
	if len([]rune(s)) > max {
		v.Add(field, "ensure this field has no more than "+strconv.Itoa(max)+" characters")
	}
}

func cacheHit(key string)  { metrics.CacheHits.WithLabelValues(cacheOp(key)).Inc() }
func cacheMiss(key string) { metrics.CacheMisses.WithLabelValues(cacheOp(key)).Inc() }

// cacheOp strips the record id so the metric label stays low-cardinality.
func cacheOp(key string) string {
	if i := strings.LastIndex(key, ":"); i > 0 {
		return key[:i]
	}
	return key
}

// cached runs a read-through lookup against cache, falling back to load.
func cached[T any](ctx context.Context, cache ports.CacheService, key string, ttl int, load func() (*T, error)) (*T, error) {
	if cache != nil {
		data, err := cache.Get(ctx, key)
		if err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				cacheHit(key)
				return &v, nil
			}
		} else if !errors.Is(err, ports.ErrCacheMiss) {
			slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		}
		cacheMiss(key)
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttl)
		}
	}
	return v, nil
}

func invalidate(ctx context.Context, cache ports.CacheService, keys ...string) {
	if cache == nil {
		return
	}
	for _, k := range keys {
		if err := cache.Delete(ctx, k); err != nil {
			slog.WarnContext(ctx, "cache invalidate failed", "key", k, "error", err)
		}
	}
}

// publish sends a grid event best-effort; a broker outage never fails a write.
func publish(ctx context.Context, pub ports.EventPublisher, resource, action string, ids ...int64) {
	if pub == nil {
		return
	}
	ev := &domain.GridEvent{
		Resource: resource,
		Action:   action,
		IDs:      ids,
		Time:     time.Now().UTC(),
	}
	if err := pub.PublishGridEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "publish grid event failed",
			"resource", resource, "action", action, "error", err)
	}
}

// EventCacheKeys lists the cache entries a grid event makes stale. Other
// processes consuming the event stream use it to drop what the writer's own
// invalidation may have missed.
func EventCacheKeys(ev *domain.GridEvent) []string {
	keys := make([]string, 0, len(ev.IDs)+1)
	for _, id := range ev.IDs {
		keys = append(keys, recordKey(ev.Resource, id))
	}
	if ev.Resource != LayoutResource {
		keys = append(keys, ev.Resource+":latest")
	}
	return keys
}

func recordKey(resource string, id int64) string {
	return resource + ":id:" + strconv.FormatInt(id, 10)
}
