package ports

import (
	"context"

	"github.com/samirrijal/citygrid/internal/core/domain"
)

// LayoutRepository persists city layouts. List returns every row when
// limit is zero or negative.
type LayoutRepository interface {
	Create(ctx context.Context, layout *domain.CityLayout) error
	GetByID(ctx context.Context, id int64) (*domain.CityLayout, error)
	List(ctx context.Context, offset, limit int) ([]domain.CityLayout, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, layout *domain.CityLayout) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int, error)
}

// EditRepository persists city edit records. Both edit variants share it,
// each backed by its own table. List follows the LayoutRepository limit rule.
type EditRepository interface {
	Create(ctx context.Context, edit *domain.CityEdit) error
	GetByID(ctx context.Context, id int64) (*domain.CityEdit, error)
	List(ctx context.Context, offset, limit int) ([]domain.CityEdit, error)
	Count(ctx context.Context) (int, error)
	Latest(ctx context.Context) (*domain.CityEdit, error)
	Update(ctx context.Context, edit *domain.CityEdit) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int, error)
}
