package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/citygrid/internal/core/domain"
)

// Edit tables. Both have the same schema.
const (
	CityEditsTable  = "city_edits"
	CityDraftsTable = "city_drafts"
)

// EditRepo implements ports.EditRepository over one edit table.
type EditRepo struct {
	db    *DB
	table string
}

// NewEditRepo returns a repo for table, which must be one of the edit tables.
func NewEditRepo(db *DB, table string) (*EditRepo, error) {
	switch table {
	case CityEditsTable, CityDraftsTable:
	default:
		return nil, fmt.Errorf("unknown edit table %q", table)
	}
	return &EditRepo{db: db, table: table}, nil
}

const editColumns = `id, title, grid_data, rows, cols, selected_tool, created_at, updated_at`

func scanEdit(row pgx.Row) (*domain.CityEdit, error) {
	e := &domain.CityEdit{}
	err := row.Scan(&e.ID, &e.Title, &e.GridData, &e.Rows, &e.Cols, &e.SelectedTool, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r *EditRepo) Create(ctx context.Context, e *domain.CityEdit) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO `+r.table+` (title, grid_data, rows, cols, selected_tool)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, e.Title, e.GridData, e.Rows, e.Cols, e.SelectedTool).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EditRepo) GetByID(ctx context.Context, id int64) (*domain.CityEdit, error) {
	return scanEdit(r.db.Pool.QueryRow(ctx,
		`SELECT `+editColumns+` FROM `+r.table+` WHERE id = $1`, id))
}

func (r *EditRepo) List(ctx context.Context, offset, limit int) ([]domain.CityEdit, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+editColumns+`
		FROM `+r.table+`
		ORDER BY updated_at DESC, id DESC
		OFFSET $1 LIMIT $2
	`, offset, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edits := []domain.CityEdit{}
	for rows.Next() {
		e, err := scanEdit(rows)
		if err != nil {
			return nil, err
		}
		edits = append(edits, *e)
	}
	return edits, rows.Err()
}

func (r *EditRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM `+r.table).Scan(&n)
	return n, err
}

func (r *EditRepo) Latest(ctx context.Context) (*domain.CityEdit, error) {
	return scanEdit(r.db.Pool.QueryRow(ctx, `
		SELECT `+editColumns+`
		FROM `+r.table+`
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`))
}

func (r *EditRepo) Update(ctx context.Context, e *domain.CityEdit) error {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE `+r.table+`
		SET title = $2, grid_data = $3, rows = $4, cols = $5, selected_tool = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, e.ID, e.Title, e.GridData, e.Rows, e.Cols, e.SelectedTool).Scan(&e.UpdatedAt)
	return notFound(err)
}

func (r *EditRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EditRepo) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
