package postgres

import (
	"context"

	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/jackc/pgx/v5"
)

func (t *tx) InsertKit(ctx context.Context, name string, ownerID int64) (kits.Kit, error) {
	var k kits.Kit
	err := t.tx.QueryRow(ctx, `
		INSERT INTO kits (name, owner_id) VALUES ($1,$2)
		RETURNING id, name, owner_id, created_at
	`, name, ownerID).Scan(&k.ID, &k.Name, &k.OwnerID, &k.CreatedAt)
	return k, mapErr(err)
}

func (t *tx) GetKit(ctx context.Context, id int64) (kits.Kit, error) {
	var k kits.Kit
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at FROM kits WHERE id=$1
	`, id).Scan(&k.ID, &k.Name, &k.OwnerID, &k.CreatedAt)
	if err != nil {
		return k, mapErr(err)
	}
	k.Items, err = t.KitItems(ctx, id)
	return k, err
}

func (t *tx) ListKits(ctx context.Context) ([]kits.Kit, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, name, owner_id, created_at FROM kits ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var out []kits.Kit
	for rows.Next() {
		var k kits.Kit
		if err := rows.Scan(&k.ID, &k.Name, &k.OwnerID, &k.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The connection is free again once rows are closed.
	for i := range out {
		if out[i].Items, err = t.KitItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *tx) RenameKit(ctx context.Context, id int64, name string) error {
	return mustAffect(t.tx.Exec(ctx, `UPDATE kits SET name=$2 WHERE id=$1`, id, name))
}

func (t *tx) KitItems(ctx context.Context, kitID int64) ([]kits.Item, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT ki.material_id, ki.quantity, ki.form, m.name, m.unit, m.category, m.class
		FROM kit_items ki
		JOIN materials m ON m.id = ki.material_id
		WHERE ki.kit_id = $1
		ORDER BY ki.id
	`, kitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []kits.Item
	for rows.Next() {
		var it kits.Item
		if err := rows.Scan(&it.MaterialID, &it.Quantity, &it.Form, &it.MaterialName, &it.Unit, &it.Category, &it.Class); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *tx) InsertKitItems(ctx context.Context, kitID int64, items []kits.Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO kit_items (kit_id, material_id, quantity, form)
			VALUES ($1,$2,$3,$4)
		`, kitID, it.MaterialID, it.Quantity, it.Form)
	}
	return mapErr(t.tx.SendBatch(ctx, batch).Close())
}

func (t *tx) DeleteKitItems(ctx context.Context, kitID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM kit_items WHERE kit_id=$1`, kitID)
	return mapErr(err)
}

func (t *tx) KitInUse(ctx context.Context, kitID int64) (bool, error) {
	var used bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE kit_id=$1)`, kitID).Scan(&used)
	return used, err
}

func (t *tx) DeleteKit(ctx context.Context, id int64) error {
	return mustAffect(t.tx.Exec(ctx, `DELETE FROM kits WHERE id=$1`, id))
}
