// Command importer bulk-loads city layouts and edits from a JSON manifest:
//
//	importer seed.json
//
// Records go through the same validation and event publishing as the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	natsadapter "github.com/samirrijal/citygrid/internal/adapters/nats"
	"github.com/samirrijal/citygrid/internal/adapters/postgres"
	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/ports"
	"github.com/samirrijal/citygrid/internal/core/usecases"
	"github.com/samirrijal/citygrid/internal/pkg/config"
	"github.com/samirrijal/citygrid/internal/pkg/logging"
)

// Manifest is the importer's input file.
type Manifest struct {
	Source     string               `json:"source"`
	Layouts    []domain.LayoutPatch `json:"layouts"`
	CityEdits  []domain.EditPatch   `json:"city_edits"`
	CityDrafts []domain.EditPatch   `json:"city_drafts"`
}

type layoutCreator interface {
	Create(ctx context.Context, in domain.LayoutPatch) (*domain.CityLayout, error)
}

type editCreator interface {
	Create(ctx context.Context, in domain.EditPatch) (*domain.CityEdit, error)
}

// maxConcurrent bounds in-flight inserts.
const maxConcurrent = 4

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <manifest.json>")
	}

	cfg, err := config.Load("citygrid-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, imported records will not emit events", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	editRepo, err := postgres.NewEditRepo(db, postgres.CityEditsTable)
	if err != nil {
		log.Fatalf("edit repo: %v", err)
	}
	draftRepo, err := postgres.NewEditRepo(db, postgres.CityDraftsTable)
	if err != nil {
		log.Fatalf("draft repo: %v", err)
	}

	slog.Info("importing manifest", "source", m.Source,
		"layouts", len(m.Layouts), "city_edits", len(m.CityEdits), "city_drafts", len(m.CityDrafts))

	res := importManifest(ctx, &m,
		usecases.NewLayoutService(postgres.NewLayoutRepo(db), nil, publisher),
		usecases.NewEditService(usecases.CityEditResource, editRepo, nil, publisher),
		usecases.NewEditService(usecases.CityDraftResource, draftRepo, nil, publisher),
	)

	slog.Info("import complete", "imported", res.Imported, "failed", res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

type result struct {
	Imported int64
	Failed   int64
}

// importManifest creates every record in m, at most maxConcurrent at a time.
// A failed record is logged and skipped.
func importManifest(ctx context.Context, m *Manifest, layouts layoutCreator, edits, drafts editCreator) result {
	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, maxConcurrent)
		imported atomic.Int64
		failed   atomic.Int64
	)

	run := func(label string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := fn(); err != nil {
				failed.Add(1)
				slog.Error("import failed", "record", label, "error", err)
				return
			}
			imported.Add(1)
		}()
	}

	for i, in := range m.Layouts {
		run(fmt.Sprintf("layouts[%d]", i), func() error {
			_, err := layouts.Create(ctx, in)
			return err
		})
	}
	for i, in := range m.CityEdits {
		run(fmt.Sprintf("city_edits[%d]", i), func() error {
			_, err := edits.Create(ctx, in)
			return err
		})
	}
	for i, in := range m.CityDrafts {
		run(fmt.Sprintf("city_drafts[%d]", i), func() error {
			_, err := drafts.Create(ctx, in)
			return err
		})
	}

	wg.Wait()
	return result{Imported: imported.Load(), Failed: failed.Load()}
}
