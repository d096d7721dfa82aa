package postgres

import (
	"context"

	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/jackc/pgx/v5"
)

func scanLab(row pgx.Row) (labs.Lab, error) {
	var l labs.Lab
	err := row.Scan(&l.ID, &l.Name, &l.Location, &l.Capacity, &l.CreatedAt)
	return l, mapErr(err)
}

func (t *tx) InsertLab(ctx context.Context, l labs.Lab) (labs.Lab, error) {
	return scanLab(t.tx.QueryRow(ctx, `
		INSERT INTO labs (name, location, capacity) VALUES ($1,$2,$3)
		RETURNING id, name, location, capacity, created_at
	`, l.Name, l.Location, l.Capacity))
}

func (t *tx) GetLab(ctx context.Context, id int64) (labs.Lab, error) {
	return scanLab(t.tx.QueryRow(ctx, `
		SELECT id, name, location, capacity, created_at FROM labs WHERE id=$1
	`, id))
}

func (t *tx) ListLabs(ctx context.Context) ([]labs.Lab, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, name, location, capacity, created_at FROM labs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []labs.Lab
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
