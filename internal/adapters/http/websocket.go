package http

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/citygrid/internal/pkg/metrics"
)

// DefaultTickInterval paces the stream at 30 snapshots per second.
const DefaultTickInterval = time.Second / 30

// SimulationStreamHandler returns a handler that gives every connection its
// own simulation and pushes one JSON snapshot per tick until the client goes away.
// The stream is server-push only; anything the client sends is discarded.
func SimulationStreamHandler(newEngine EngineFactory, interval time.Duration) func(*websocket.Conn) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.Default().With("remote_addr", c.RemoteAddr().String())
		engine := newEngine()

		opened := time.Now()
		metrics.ActiveStreams.Inc()
		defer func() {
			metrics.ActiveStreams.Dec()
			metrics.StreamDuration.Observe(time.Since(opened).Seconds())
		}()
		log.Info("simulation stream opened")

		// Drain client frames so close frames are seen; the first read
		// error ends the stream.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		var frames int
		for {
			select {
			case <-done:
				log.Info("simulation stream closed by client", "frames", frames, "sim_elapsed", engine.Elapsed())
				return
			default:
			}

			engine.Tick()
			metrics.SimulationTicks.Inc()

			data, err := json.Marshal(engine.State())
			if err != nil {
				log.Error("simulation snapshot encode failed", "error", err)
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn("simulation stream write failed",
					"frames", frames, "sim_elapsed", engine.Elapsed(), "error", err)
				return
			}
			frames++
			metrics.SnapshotsSent.Inc()

			time.Sleep(interval)
		}
	}
}
