package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/citygrid/internal/core/domain"
)

// LayoutRepo implements ports.LayoutRepository.
type LayoutRepo struct {
	db *DB
}

func NewLayoutRepo(db *DB) *LayoutRepo {
	return &LayoutRepo{db: db}
}

const layoutColumns = `id, name, description, rows, cols, grid_data, created_at, updated_at`

func scanLayout(row pgx.Row) (*domain.CityLayout, error) {
	l := &domain.CityLayout{}
	err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Rows, &l.Cols, &l.GridData, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

func (r *LayoutRepo) Create(ctx context.Context, l *domain.CityLayout) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO city_layouts (name, description, rows, cols, grid_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, l.Name, l.Description, l.Rows, l.Cols, l.GridData).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *LayoutRepo) GetByID(ctx context.Context, id int64) (*domain.CityLayout, error) {
	return scanLayout(r.db.Pool.QueryRow(ctx,
		`SELECT `+layoutColumns+` FROM city_layouts WHERE id = $1`, id))
}

func (r *LayoutRepo) List(ctx context.Context, offset, limit int) ([]domain.CityLayout, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+layoutColumns+`
		FROM city_layouts
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`, offset, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	layouts := []domain.CityLayout{}
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, *l)
	}
	return layouts, rows.Err()
}

func (r *LayoutRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM city_layouts`).Scan(&n)
	return n, err
}

func (r *LayoutRepo) Update(ctx context.Context, l *domain.CityLayout) error {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE city_layouts
		SET name = $2, description = $3, rows = $4, cols = $5, grid_data = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, l.ID, l.Name, l.Description, l.Rows, l.Cols, l.GridData).Scan(&l.UpdatedAt)
	return notFound(err)
}

func (r *LayoutRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM city_layouts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *LayoutRepo) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM city_layouts WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
