package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/citygrid/internal/core/domain"
)

type fakeLayouts struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeLayouts) Create(ctx context.Context, in domain.LayoutPatch) (*domain.CityLayout, error) {
	if in.Name == nil {
		return nil, errors.New("name required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, *in.Name)
	return &domain.CityLayout{Name: *in.Name}, nil
}

type fakeEdits struct {
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
	block    chan struct{}
}

func (f *fakeEdits) Create(ctx context.Context, in domain.EditPatch) (*domain.CityEdit, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.block != nil {
		<-f.block
	}
	return &domain.CityEdit{}, nil
}

const manifestJSON = `{
  "source": "fixtures",
  "layouts": [{"name": "North"}, {"rows": 3}, {"name": "South", "grid_data": {"0,0": "road"}}],
  "city_edits": [{"title": "a"}, {}],
  "city_drafts": [{"selected_tool": "bulldozer"}]
}`

func TestImportManifest_CountsAndSkipsFailures(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(manifestJSON), &m))

	layouts := &fakeLayouts{}
	edits, drafts := &fakeEdits{}, &fakeEdits{}

	res := importManifest(context.Background(), &m, layouts, edits, drafts)

	assert.Equal(t, int64(5), res.Imported)
	assert.Equal(t, int64(1), res.Failed)
	assert.ElementsMatch(t, []string{"North", "South"}, layouts.names)
	assert.Equal(t, int64(2), edits.calls.Load())
	assert.Equal(t, int64(1), drafts.calls.Load())
}

func TestImportManifest_BoundedConcurrency(t *testing.T) {
	m := Manifest{CityEdits: make([]domain.EditPatch, 20)}
	edits := &fakeEdits{block: make(chan struct{})}

	done := make(chan result)
	go func() {
		done <- importManifest(context.Background(), &m, &fakeLayouts{}, edits, &fakeEdits{})
	}()

	for i := 0; i < 20; i++ {
		edits.block <- struct{}{}
	}
	res := <-done

	assert.Equal(t, int64(20), res.Imported)
	assert.LessOrEqual(t, edits.peak.Load(), int64(maxConcurrent))
}
