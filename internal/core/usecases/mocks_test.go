package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/ports"
)

// --- Mock LayoutRepository ---

type mockLayoutRepo struct {
	createFn     func(ctx context.Context, l *domain.CityLayout) error
	getByIDFn    func(ctx context.Context, id int64) (*domain.CityLayout, error)
	listFn       func(ctx context.Context, offset, limit int) ([]domain.CityLayout, error)
	countFn      func(ctx context.Context) (int, error)
	updateFn     func(ctx context.Context, l *domain.CityLayout) error
	deleteFn     func(ctx context.Context, id int64) error
	deleteManyFn func(ctx context.Context, ids []int64) (int, error)
}

func (m *mockLayoutRepo) Create(ctx context.Context, l *domain.CityLayout) error {
	if m.createFn != nil {
		return m.createFn(ctx, l)
	}
	l.ID = 1
	return nil
}

func (m *mockLayoutRepo) GetByID(ctx context.Context, id int64) (*domain.CityLayout, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockLayoutRepo) List(ctx context.Context, offset, limit int) ([]domain.CityLayout, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockLayoutRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockLayoutRepo) Update(ctx context.Context, l *domain.CityLayout) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, l)
	}
	return nil
}

func (m *mockLayoutRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockLayoutRepo) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, ids)
	}
	return len(ids), nil
}

// --- Mock EditRepository ---

type mockEditRepo struct {
	createFn     func(ctx context.Context, e *domain.CityEdit) error
	getByIDFn    func(ctx context.Context, id int64) (*domain.CityEdit, error)
	latestFn     func(ctx context.Context) (*domain.CityEdit, error)
	updateFn     func(ctx context.Context, e *domain.CityEdit) error
	deleteManyFn func(ctx context.Context, ids []int64) (int, error)
}

func (m *mockEditRepo) Create(ctx context.Context, e *domain.CityEdit) error {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	e.ID = 1
	return nil
}

func (m *mockEditRepo) GetByID(ctx context.Context, id int64) (*domain.CityEdit, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEditRepo) List(ctx context.Context, offset, limit int) ([]domain.CityEdit, error) {
	return nil, nil
}

func (m *mockEditRepo) Count(ctx context.Context) (int, error) { return 0, nil }

func (m *mockEditRepo) Latest(ctx context.Context) (*domain.CityEdit, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEditRepo) Update(ctx context.Context, e *domain.CityEdit) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, e)
	}
	return nil
}

func (m *mockEditRepo) Delete(ctx context.Context, id int64) error { return nil }

func (m *mockEditRepo) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, ids)
	}
	return len(ids), nil
}

// --- In-memory cache ---


type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, ports.ErrCacheMiss
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

// --- Recording publisher ---

type recordingPublisher struct {
	events []domain.GridEvent
	err    error
}

func (p *recordingPublisher) PublishGridEvent(ctx context.Context, ev *domain.GridEvent) error {
	p.events = append(p.events, *ev)
	return p.err
}
