// Command auditor consumes grid events from JetStream. It logs every
// mutation, counts them per resource and action, and drops the cache
// entries each one makes stale.
package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/samirrijal/citygrid/internal/adapters/nats"
	"github.com/samirrijal/citygrid/internal/adapters/valkey"
	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/ports"
	"github.com/samirrijal/citygrid/internal/core/usecases"
	"github.com/samirrijal/citygrid/internal/pkg/config"
	"github.com/samirrijal/citygrid/internal/pkg/logging"
	"github.com/samirrijal/citygrid/internal/pkg/metrics"
)

const (
	durableName = "citygrid-auditor"
	metricsAddr = ":9102"
)

func main() {
	cfg, err := config.Load("citygrid-auditor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix); err != nil {
		slog.Warn("valkey unavailable, cache invalidation disabled", "error", err)
	} else {
		defer c.Close()
		cache = c
	}

	// The publisher owns stream creation; make sure it exists before binding a consumer.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, durableName)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	a := &auditor{cache: cache}
	if err := sub.SubscribeGridEvents(ctx, a.handle); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/metrics", metrics.Handler())
	go func() {
		if err := app.Listen(metricsAddr); err != nil {
			slog.Error("metrics listener stopped", "error", err)
		}
	}()

	slog.Info("auditor running", "subjects", natsadapter.SubjectPattern, "durable", durableName)
	<-ctx.Done()

	slog.Info("shutting down auditor")
	_ = app.ShutdownWithTimeout(5 * time.Second)
}

type auditor struct {
	cache ports.CacheService
}

// handle records one grid event. A cache failure is returned so the message
// is redelivered.
func (a *auditor) handle(ctx context.Context, ev *domain.GridEvent) error {
	metrics.GridEventsConsumed.WithLabelValues(ev.Resource, ev.Action).Inc()
	slog.InfoContext(ctx, "grid event",
		"resource", ev.Resource,
		"action", ev.Action,
		"ids", ev.IDs,
		"at", ev.Time,
	)

	if a.cache == nil {
		return nil
	}
	for _, key := range usecases.EventCacheKeys(ev) {
		if err := a.cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
