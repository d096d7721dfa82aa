package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/store"
)

func (t *tx) kitIdx(id int64) int {
	return slices.IndexFunc(t.st.kits, func(k kitRow) bool { return k.ID == id })
}

func (t *tx) kitNameTaken(name string, except int64) bool {
	return slices.ContainsFunc(t.st.kits, func(k kitRow) bool { return k.Name == name && k.ID != except })
}

func (t *tx) InsertKit(_ context.Context, name string, ownerID int64) (kits.Kit, error) {
	if !slices.ContainsFunc(t.st.users, func(u users.User) bool { return u.ID == ownerID }) {
		return kits.Kit{}, fkErr("kits_owner_id_fkey")
	}
	if t.kitNameTaken(name, 0) {
		return kits.Kit{}, uniqueErr("kits_name_key")
	}
	row := kitRow{ID: t.st.next("kits"), Name: name, OwnerID: ownerID, CreatedAt: t.now()}
	t.st.kits = append(t.st.kits, row)
	return kits.Kit{ID: row.ID, Name: row.Name, OwnerID: row.OwnerID, CreatedAt: row.CreatedAt}, nil
}

func (t *tx) GetKit(ctx context.Context, id int64) (kits.Kit, error) {
	i := t.kitIdx(id)
	if i < 0 {
		return kits.Kit{}, store.ErrNotFound
	}
	row := t.st.kits[i]
	items, err := t.KitItems(ctx, id)
	return kits.Kit{ID: row.ID, Name: row.Name, OwnerID: row.OwnerID, CreatedAt: row.CreatedAt, Items: items}, err
}

func (t *tx) ListKits(ctx context.Context) ([]kits.Kit, error) {
	rows := slices.Clone(t.st.kits)
	slices.SortStableFunc(rows, func(a, b kitRow) int { return strings.Compare(a.Name, b.Name) })

	out := make([]kits.Kit, 0, len(rows))
	for _, r := range rows {
		k, err := t.GetKit(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func (t *tx) RenameKit(_ context.Context, id int64, name string) error {
	i := t.kitIdx(id)
	if i < 0 {
		return store.ErrNotFound
	}
	if t.kitNameTaken(name, id) {
		return uniqueErr("kits_name_key")
	}
	t.st.kits[i].Name = name
	return nil
}

func (t *tx) KitItems(_ context.Context, kitID int64) ([]kits.Item, error) {
	var out []kits.Item
	for _, r := range t.st.kitItems {
		if r.KitID != kitID {
			continue
		}
		m := t.st.materials[t.materialIdx(r.MaterialID)]
		out = append(out, kits.Item{
			MaterialID:   r.MaterialID,
			Quantity:     r.Quantity,
			Form:         r.Form,
			MaterialName: m.Name,
			Unit:         m.Unit,
			Category:     m.Category,
			Class:        m.Class,
		})
	}
	return out, nil
}

func (t *tx) InsertKitItems(_ context.Context, kitID int64, items []kits.Item) error {
	if t.kitIdx(kitID) < 0 {
		return fkErr("kit_items_kit_id_fkey")
	}
	for _, it := range items {
		if t.materialIdx(it.MaterialID) < 0 {
			return fkErr("kit_items_material_id_fkey")
		}
		if !it.Quantity.IsPositive() {
			return checkErr("kit_items_quantity_check")
		}
		t.st.kitItems = append(t.st.kitItems, kitItemRow{
			ID:         t.st.next("kit_items"),
			KitID:      kitID,
			MaterialID: it.MaterialID,
			Quantity:   it.Quantity,
			Form:       it.Form,
		})
	}
	return nil
}

func (t *tx) DeleteKitItems(_ context.Context, kitID int64) error {
	t.st.kitItems = slices.DeleteFunc(t.st.kitItems, func(r kitItemRow) bool { return r.KitID == kitID })
	return nil
}

func (t *tx) KitInUse(_ context.Context, kitID int64) (bool, error) {
	return slices.ContainsFunc(t.st.bookings, func(b bookings.Booking) bool {
		return b.KitID != nil && *b.KitID == kitID
	}), nil
}

func (t *tx) DeleteKit(ctx context.Context, id int64) error {
	i := t.kitIdx(id)
	if i < 0 {
		return store.ErrNotFound
	}
	if used, _ := t.KitInUse(ctx, id); used {
		return fkErr("bookings_kit_id_fkey")
	}
	if slices.ContainsFunc(t.st.kitItems, func(r kitItemRow) bool { return r.KitID == id }) {
		return fkErr("kit_items_kit_id_fkey")
	}
	t.st.kits = slices.Delete(t.st.kits, i, i+1)
	return nil
}
