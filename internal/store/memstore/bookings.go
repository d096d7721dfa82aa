package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/store"
	"github.com/shopspring/decimal"
)

func (t *tx) InsertBooking(_ context.Context, b bookings.Booking) (bookings.Booking, error) {
	if t.userIdx(b.ProfessorID) < 0 {
		return bookings.Booking{}, fkErr("bookings_professor_id_fkey")
	}
	if t.labIdx(b.LabID) < 0 {
		return bookings.Booking{}, fkErr("bookings_lab_id_fkey")
	}
	if b.KitID != nil && t.kitIdx(*b.KitID) < 0 {
		return bookings.Booking{}, fkErr("bookings_kit_id_fkey")
	}
	if !b.End.After(b.Start) {
		return bookings.Booking{}, checkErr("bookings_check")
	}
	if b.Status == "" {
		b.Status = bookings.StatusPending
	}
	b.ID = t.st.next("bookings")
	b.CreatedAt = t.now()
	b.Items, b.Materials = nil, nil
	b.LabName, b.KitName, b.ProfessorName = "", "", ""
	t.st.bookings = append(t.st.bookings, b)
	return b, nil
}

func (t *tx) InsertBookingItem(_ context.Context, it bookings.Item) (bookings.Item, error) {
	if t.bookingIdx(it.BookingID) < 0 {
		return bookings.Item{}, fkErr("booking_items_booking_id_fkey")
	}
	if t.materialIdx(it.MaterialID) < 0 {
		return bookings.Item{}, fkErr("booking_items_material_id_fkey")
	}
	if !it.Quantity.IsPositive() {
		return bookings.Item{}, checkErr("booking_items_quantity_check")
	}
	it.ID = t.st.next("booking_items")
	t.st.bookingItems = append(t.st.bookingItems, itemRow{
		ID:         it.ID,
		BookingID:  it.BookingID,
		MaterialID: it.MaterialID,
		Quantity:   it.Quantity,
		Form:       it.Form,
	})
	return it, nil
}

func (t *tx) GetBooking(_ context.Context, id int64) (bookings.Booking, error) {
	i := t.bookingIdx(id)
	if i < 0 {
		return bookings.Booking{}, store.ErrNotFound
	}
	return t.st.bookings[i], nil
}

func (t *tx) LockBooking(ctx context.Context, id int64) (bookings.Booking, error) {
	return t.GetBooking(ctx, id)
}

func (t *tx) ListBookings(_ context.Context, f store.BookingFilter) ([]bookings.Booking, error) {
	var out []bookings.Booking
	for _, b := range t.st.bookings {
		if f.ProfessorID != 0 && b.ProfessorID != f.ProfessorID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.ExcludeStatus != "" && b.Status == f.ExcludeStatus {
			continue
		}
		if i := t.labIdx(b.LabID); i >= 0 {
			b.LabName = t.st.labs[i].Name
		}
		if b.KitID != nil {
			if i := t.kitIdx(*b.KitID); i >= 0 {
				b.KitName = t.st.kits[i].Name
			}
		}
		if i := t.userIdx(b.ProfessorID); i >= 0 {
			b.ProfessorName = t.st.users[i].Name
		}
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b bookings.Booking) int {
		c := cmp.Or(a.Start.Compare(b.Start), cmp.Compare(a.ID, b.ID))
		if f.OldestFirst {
			return c
		}
		return -c
	})
	return out, nil
}

func (t *tx) SetBookingStatus(_ context.Context, id int64, st bookings.Status) error {
	i := t.bookingIdx(id)
	if i < 0 {
		return store.ErrNotFound
	}
	t.st.bookings[i].Status = st
	return nil
}

func (t *tx) BookingItems(_ context.Context, bookingID int64) ([]bookings.Item, error) {
	var out []bookings.Item
	for _, r := range t.st.bookingItems {
		if r.BookingID != bookingID {
			continue
		}
		m := t.st.materials[t.materialIdx(r.MaterialID)]
		out = append(out, bookings.Item{
			ID:           r.ID,
			BookingID:    r.BookingID,
			MaterialID:   r.MaterialID,
			Quantity:     r.Quantity,
			Form:         r.Form,
			PrepWeight:   r.PrepWeight,
			MaterialName: m.Name,
			Category:     m.Category,
			Unit:         m.Unit,
			Class:        m.Class,
		})
	}
	return out, nil
}

func (t *tx) SetItemPrepWeight(_ context.Context, itemID int64, w decimal.Decimal) error {
	i := slices.IndexFunc(t.st.bookingItems, func(r itemRow) bool { return r.ID == itemID })
	if i < 0 {
		return store.ErrNotFound
	}
	if !w.IsPositive() {
		return checkErr("booking_items_prep_weight_g_check")
	}
	t.st.bookingItems[i].PrepWeight = decimal.NullDecimal{Decimal: w, Valid: true}
	return nil
}

func (t *tx) userIdx(id int64) int {
	return slices.IndexFunc(t.st.users, func(u users.User) bool { return u.ID == id })
}

func (t *tx) labIdx(id int64) int {
	return slices.IndexFunc(t.st.labs, func(l labs.Lab) bool { return l.ID == id })
}
