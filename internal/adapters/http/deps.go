package http

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/citygrid/internal/adapters/postgres"
	"github.com/samirrijal/citygrid/internal/adapters/valkey"
	"github.com/samirrijal/citygrid/internal/core/simulation"
	"github.com/samirrijal/citygrid/internal/core/usecases"
)

// EngineFactory builds a fresh simulation for one stream connection.
type EngineFactory func() *simulation.Engine

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Layouts *usecases.LayoutService
	Edits   *usecases.EditService
	Drafts  *usecases.EditService

	// NewEngine defaults to simulation.NewDefault when nil.
	NewEngine    EngineFactory
	TickInterval time.Duration

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}

func (d *Dependencies) engineFactory() EngineFactory {
	if d.NewEngine != nil {
		return d.NewEngine
	}
	return simulation.NewDefault
}
