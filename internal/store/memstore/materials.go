package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/store"
	"github.com/shopspring/decimal"
)

func (t *tx) materialIdx(id int64) int {
	return slices.IndexFunc(t.st.materials, func(m materials.Material) bool { return m.ID == id })
}

func (t *tx) InsertMaterial(_ context.Context, m materials.Material) (materials.Material, error) {
	if m.Quantity.IsNegative() {
		return materials.Material{}, checkErr("materials_quantity_check")
	}
	if m.Status == "" {
		m.Status = materials.StatusAvailable
	}
	m.ID = t.st.next("materials")
	m.CreatedAt = t.now()
	t.st.materials = append(t.st.materials, m)
	return m, nil
}

func (t *tx) GetMaterial(_ context.Context, id int64) (materials.Material, error) {
	i := t.materialIdx(id)
	if i < 0 {
		return materials.Material{}, store.ErrNotFound
	}
	return t.st.materials[i], nil
}

func (t *tx) LockMaterial(ctx context.Context, id int64) (materials.Material, error) {
	return t.GetMaterial(ctx, id)
}

func (t *tx) ListMaterials(_ context.Context) ([]materials.Material, error) {
	out := slices.Clone(t.st.materials)
	slices.SortStableFunc(out, func(a, b materials.Material) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) SetMaterialQuantity(_ context.Context, id int64, qty decimal.Decimal) error {
	i := t.materialIdx(id)
	if i < 0 {
		return store.ErrNotFound
	}
	if qty.IsNegative() {
		return checkErr("materials_quantity_check")
	}
	t.st.materials[i].Quantity = qty
	return nil
}

func (t *tx) DeleteMaterial(_ context.Context, id int64) error {
	i := t.materialIdx(id)
	if i < 0 {
		return store.ErrNotFound
	}
	if slices.ContainsFunc(t.st.kitItems, func(r kitItemRow) bool { return r.MaterialID == id }) {
		return fkErr("kit_items_material_id_fkey")
	}
	if slices.ContainsFunc(t.st.bookingItems, func(r itemRow) bool { return r.MaterialID == id }) {
		return fkErr("booking_items_material_id_fkey")
	}
	if slices.ContainsFunc(t.st.entries, func(e inventory.Entry) bool { return e.MaterialID == id }) {
		return fkErr("stock_log_material_id_fkey")
	}
	t.st.materials = slices.Delete(t.st.materials, i, i+1)
	return nil
}
