package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/citygrid/internal/core/domain"
	"github.com/samirrijal/citygrid/internal/core/ports"
)

// Edit resources. Both share EditService, one instance per table.
const (
	CityEditResource  = "city_edits"
	CityDraftResource = "city_drafts"
)

const (
	maxEditTitle    = 200
	maxSelectedTool = 50
)

// EditService handles city edit business logic for one edit resource.
type EditService struct {
	resource  string
	edits     ports.EditRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewEditService creates a new EditService. cache and publisher may be nil.
func NewEditService(resource string, edits ports.EditRepository, cache ports.CacheService, publisher ports.EventPublisher) *EditService {
	return &EditService{resource: resource, edits: edits, cache: cache, publisher: publisher}
}

// Resource returns the resource name the service was created for.
func (s *EditService) Resource() string { return s.resource }

func (s *EditService) idKey(id int64) string { return recordKey(s.resource, id) }
func (s *EditService) latestKey() string     { return s.resource + ":latest" }

// List returns one page of edits, most recently updated first, and the total count.
func (s *EditService) List(ctx context.Context, offset, limit int) ([]domain.CityEdit, int, error) {
	offset, limit = clampPage(offset, limit)

	total, err := s.edits.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", s.resource, err)
	}
	edits, err := s.edits.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.resource, err)
	}
	return edits, total, nil
}

// ListAll returns every edit, most recently updated first.
func (s *EditService) ListAll(ctx context.Context) ([]domain.CityEdit, error) {
	edits, err := s.edits.List(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.resource, err)
	}
	return edits, nil
}

// GetByID returns a single edit.
func (s *EditService) GetByID(ctx context.Context, id int64) (*domain.CityEdit, error) {
	return cached(ctx, s.cache, s.idKey(id), recordTTL, func() (*domain.CityEdit, error) {
		return s.edits.GetByID(ctx, id)
	})
}

// Latest returns the most recently updated edit, or domain.ErrNotFound.
func (s *EditService) Latest(ctx context.Context) (*domain.CityEdit, error) {
	return cached(ctx, s.cache, s.latestKey(), latestTTL, func() (*domain.CityEdit, error) {
		return s.edits.Latest(ctx)
	})
}

// Create fills defaults for missing fields, validates and stores a new edit.
func (s *EditService) Create(ctx context.Context, in domain.EditPatch) (*domain.CityEdit, error) {
	edit := &domain.CityEdit{
		Title:        domain.DefaultEditTitle,
		GridData:     json.RawMessage(`[]`),
		Rows:         domain.DefaultRows,
		Cols:         domain.DefaultCols,
		SelectedTool: domain.DefaultSelectedTool,
	}
	applyEditPatch(edit, in)
	if err := validateEdit(edit); err != nil {
		return nil, err
	}

	if err := s.edits.Create(ctx, edit); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.resource, err)
	}
	invalidate(ctx, s.cache, s.latestKey())
	publish(ctx, s.publisher, s.resource, "created", edit.ID)
	return edit, nil
}

// Update modifies an existing edit. Every edit field has a default, so full
// and partial updates differ only in intent.
func (s *EditService) Update(ctx context.Context, id int64, in domain.EditPatch) (*domain.CityEdit, error) {
	edit, err := s.edits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyEditPatch(edit, in)
	if err := validateEdit(edit); err != nil {
		return nil, err
	}

	if err := s.edits.Update(ctx, edit); err != nil {
		return nil, fmt.Errorf("update %s %d: %w", s.resource, id, err)
	}
	invalidate(ctx, s.cache, s.idKey(id), s.latestKey())
	publish(ctx, s.publisher, s.resource, "updated", id)
	return edit, nil
}

// Delete removes an edit.
func (s *EditService) Delete(ctx context.Context, id int64) error {
	if err := s.edits.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, s.idKey(id), s.latestKey())
	publish(ctx, s.publisher, s.resource, "deleted", id)
	return nil
}

// BulkDelete removes every edit whose id is in ids and returns the count.
func (s *EditService) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	ctx, span := tracer.Start(ctx, "EditService.BulkDelete")
	defer span.End()
	span.SetAttributes(
		attribute.String("resource", s.resource),
		attribute.Int("ids", len(ids)),
	)

	if len(ids) == 0 {
		return 0, domain.ErrNoIDs
	}

	n, err := s.edits.DeleteMany(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("delete %s: %w", s.resource, err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.idKey(id))
	}
	invalidate(ctx, s.cache, append(keys, s.latestKey())...)
	publish(ctx, s.publisher, s.resource, "deleted", ids...)
	return n, nil
}

func applyEditPatch(e *domain.CityEdit, p domain.EditPatch) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.GridData != nil {
		e.GridData = *p.GridData
	}
	if p.Rows != nil {
		e.Rows = *p.Rows
	}
	if p.Cols != nil {
		e.Cols = *p.Cols
	}
	if p.SelectedTool != nil {
		e.SelectedTool = *p.SelectedTool
	}
}

func validateEdit(e *domain.CityEdit) error {
	v := &domain.ValidationError{}
	validString(v, "title", e.Title, maxEditTitle)
	validString(v, "selected_tool", e.SelectedTool, maxSelectedTool)
	validDimension(v, "rows", e.Rows)
	validDimension(v, "cols", e.Cols)
	validGrid(v, e.GridData)
	return v.OrNil()
}
