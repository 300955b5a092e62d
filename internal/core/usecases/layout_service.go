package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/ports"
)

// LayoutResource names layouts in cache keys and events.
const LayoutResource = "layouts"

const maxLayoutName = 100

// LayoutService handles city layout business logic.
type LayoutService struct {
	layouts   ports.LayoutRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewLayoutService creates a new LayoutService. cache and publisher may be nil.
func NewLayoutService(layouts ports.LayoutRepository, cache ports.CacheService, publisher ports.EventPublisher) *LayoutService {
	return &LayoutService{layouts: layouts, cache: cache, publisher: publisher}
}

func layoutKey(id int64) string { return recordKey(LayoutResource, id) }

// List returns one page of layouts, newest first, and the total count.
func (s *LayoutService) List(ctx context.Context, offset, limit int) ([]domain.CityLayout, int, error) {
	offset, limit = clampPage(offset, limit)

	total, err := s.layouts.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count layouts: %w", err)
	}
	layouts, err := s.layouts.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list layouts: %w", err)
	}
	return layouts, total, nil
}

// ListAll returns every layout, newest first.
func (s *LayoutService) ListAll(ctx context.Context) ([]domain.CityLayout, error) {
	layouts, err := s.layouts.List(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return layouts, nil
}

// GetByID returns a single layout.
func (s *LayoutService) GetByID(ctx context.Context, id int64) (*domain.CityLayout, error) {
	return cached(ctx, s.cache, layoutKey(id), recordTTL, func() (*domain.CityLayout, error) {
		return s.layouts.GetByID(ctx, id)
	})
}

// Create validates in, fills defaults and stores a new layout.
func (s *LayoutService) Create(ctx context.Context, in domain.LayoutPatch) (*domain.CityLayout, error) {
	if in.Name == nil {
		v := &domain.ValidationError{}
		v.Add("name", "this field is required")
		return nil, v
	}

	layout := &domain.CityLayout{
		Rows:     domain.DefaultRows,
		Cols:     domain.DefaultCols,
		GridData: json.RawMessage(`{}`),
	}
	applyLayoutPatch(layout, in)
	if err := validateLayout(layout); err != nil {
		return nil, err
	}

	if err := s.layouts.Create(ctx, layout); err != nil {
		return nil, fmt.Errorf("create layout: %w", err)
	}
	publish(ctx, s.publisher, LayoutResource, "created", layout.ID)
	return layout, nil
}

// Update modifies an existing layout. A full update (partial == false)
// requires every field without a default to be present.
func (s *LayoutService) Update(ctx context.Context, id int64, in domain.LayoutPatch, partial bool) (*domain.CityLayout, error) {
	if !partial && in.Name == nil {
		v := &domain.ValidationError{}
		v.Add("name", "this field is required")
		return nil, v
	}

	layout, err := s.layouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyLayoutPatch(layout, in)
	if err := validateLayout(layout); err != nil {
		return nil, err
	}

	if err := s.layouts.Update(ctx, layout); err != nil {
		return nil, fmt.Errorf("update layout %d: %w", id, err)
	}
	invalidate(ctx, s.cache, layoutKey(id))
	publish(ctx, s.publisher, LayoutResource, "updated", id)
	return layout, nil
}

// Delete removes a layout.
func (s *LayoutService) Delete(ctx context.Context, id int64) error {
	if err := s.layouts.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, layoutKey(id))
	publish(ctx, s.publisher, LayoutResource, "deleted", id)
	return nil
}

// BulkDelete removes every layout whose id is in ids and returns how many
// rows were deleted. Unknown ids are ignored.
func (s *LayoutService) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	ctx, span := tracer.Start(ctx, "LayoutService.BulkDelete")
	defer span.End()
	span.SetAttributes(attribute.Int("ids", len(ids)))

	if len(ids) == 0 {
		return 0, domain.ErrNoIDs
	}

	n, err := s.layouts.DeleteMany(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("delete layouts: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = layoutKey(id)
	}
	invalidate(ctx, s.cache, keys...)
	publish(ctx, s.publisher, LayoutResource, "deleted", ids...)
	return n, nil
}

func applyLayoutPatch(l *domain.CityLayout, p domain.LayoutPatch) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Description.Set {
		l.Description = p.Description.Value
	}
	if p.Rows != nil {
		l.Rows = *p.Rows
	}
	if p.Cols != nil {
		l.Cols = *p.Cols
	}
	if p.GridData != nil {
		l.GridData = *p.GridData
	}
}

func validateLayout(l *domain.CityLayout) error {
	v := &domain.ValidationError{}
	validString(v, "name", l.Name, maxLayoutName)
	validDimension(v, "rows", l.Rows)
	validDimension(v, "cols", l.Cols)
	validGrid(v, l.GridData)
	return v.OrNil()
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
