package postgres

import (
	"context"

	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/jackc/pgx/v5"
)

const entryCols = `id, material_id, qty_before, qty_after, delta, actor_id, booking_id, created_at`

func scanEntry(row pgx.Row) (inventory.Entry, error) {
	var e inventory.Entry
	err := row.Scan(&e.ID, &e.MaterialID, &e.Before, &e.After, &e.Delta, &e.ActorID, &e.BookingID, &e.CreatedAt)
	return e, mapErr(err)
}

func (t *tx) InsertEntry(ctx context.Context, e inventory.Entry) (inventory.Entry, error) {
	return scanEntry(t.tx.QueryRow(ctx, `
		INSERT INTO stock_log (material_id, qty_before, qty_after, delta, actor_id, booking_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+entryCols,
		e.MaterialID, e.Before, e.After, e.Delta, e.ActorID, e.BookingID))
}

// LastEntry orders by id: BIGSERIAL values are handed out in insertion order,
// which is the creation order the undo engine relies on.
func (t *tx) LastEntry(ctx context.Context) (inventory.Entry, error) {
	return scanEntry(t.tx.QueryRow(ctx, `
		SELECT `+entryCols+` FROM stock_log
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE`))
}

func (t *tx) DeleteEntry(ctx context.Context, id int64) error {
	return mustAffect(t.tx.Exec(ctx, `DELETE FROM stock_log WHERE id=$1`, id))
}

func (t *tx) ListEntries(ctx context.Context, materialID int64, limit int) ([]inventory.Entry, error) {
	q := `SELECT ` + entryCols + ` FROM stock_log WHERE ($1 = 0 OR material_id = $1) ORDER BY id DESC`
	args := []any{materialID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
