package postgres

import (
	"context"

	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const materialCols = `id, name, description, location, category, class, quantity, unit, status, created_at`

func scanMaterial(row pgx.Row) (materials.Material, error) {
	var m materials.Material
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.Location,
		&m.Category,
		&m.Class,
		&m.Quantity,
		&m.Unit,
		&m.Status,
		&m.CreatedAt,
	)
	return m, mapErr(err)
}

func (t *tx) InsertMaterial(ctx context.Context, m materials.Material) (materials.Material, error) {
	if m.Status == "" {
		m.Status = materials.StatusAvailable
	}
	return scanMaterial(t.tx.QueryRow(ctx, `
		INSERT INTO materials (name, description, location, category, class, quantity, unit, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+materialCols,
		m.Name, m.Description, m.Location, m.Category, m.Class, m.Quantity, m.Unit, m.Status))
}

func (t *tx) GetMaterial(ctx context.Context, id int64) (materials.Material, error) {
	return scanMaterial(t.tx.QueryRow(ctx, `SELECT `+materialCols+` FROM materials WHERE id=$1`, id))
}

func (t *tx) LockMaterial(ctx context.Context, id int64) (materials.Material, error) {
	return scanMaterial(t.tx.QueryRow(ctx, `SELECT `+materialCols+` FROM materials WHERE id=$1 FOR UPDATE`, id))
}

func (t *tx) ListMaterials(ctx context.Context) ([]materials.Material, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+materialCols+` FROM materials ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []materials.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *tx) SetMaterialQuantity(ctx context.Context, id int64, qty decimal.Decimal) error {
	return mustAffect(t.tx.Exec(ctx, `UPDATE materials SET quantity=$2 WHERE id=$1`, id, qty))
}

func (t *tx) DeleteMaterial(ctx context.Context, id int64) error {
	return mustAffect(t.tx.Exec(ctx, `DELETE FROM materials WHERE id=$1`, id))
}
