package memstore

import (
	"context"
	"slices"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/store"
)

func (t *tx) InsertEntry(_ context.Context, e inventory.Entry) (inventory.Entry, error) {
	if t.materialIdx(e.MaterialID) < 0 {
		return inventory.Entry{}, fkErr("stock_log_material_id_fkey")
	}
	if !slices.ContainsFunc(t.st.users, func(u users.User) bool { return u.ID == e.ActorID }) {
		return inventory.Entry{}, fkErr("stock_log_actor_id_fkey")
	}
	if e.BookingID != nil && t.bookingIdx(*e.BookingID) < 0 {
		return inventory.Entry{}, fkErr("stock_log_booking_id_fkey")
	}
	if e.Delta.IsZero() {
		return inventory.Entry{}, checkErr("stock_log_delta_check")
	}
	if !e.After.Equal(e.Before.Add(e.Delta)) {
		return inventory.Entry{}, checkErr("stock_log_check")
	}
	e.ID = t.st.next("stock_log")
	e.CreatedAt = t.now()
	t.st.entries = append(t.st.entries, e)
	return e, nil
}

func (t *tx) LastEntry(_ context.Context) (inventory.Entry, error) {
	if len(t.st.entries) == 0 {
		return inventory.Entry{}, store.ErrNotFound
	}
	return t.st.entries[len(t.st.entries)-1], nil
}

func (t *tx) DeleteEntry(_ context.Context, id int64) error {
	i := slices.IndexFunc(t.st.entries, func(e inventory.Entry) bool { return e.ID == id })
	if i < 0 {
		return store.ErrNotFound
	}
	t.st.entries = slices.Delete(t.st.entries, i, i+1)
	return nil
}

func (t *tx) ListEntries(_ context.Context, materialID int64, limit int) ([]inventory.Entry, error) {
	var out []inventory.Entry
	for i := len(t.st.entries) - 1; i >= 0; i-- {
		e := t.st.entries[i]
		if materialID != 0 && e.MaterialID != materialID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *tx) bookingIdx(id int64) int {
	return slices.IndexFunc(t.st.bookings, func(b bookings.Booking) bool { return b.ID == id })
}
