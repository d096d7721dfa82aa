package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const bookingCols = `b.id, b.professor_id, b.lab_id, b.starts_at, b.ends_at, b.notes, b.kit_id, b.status, b.created_at`

func scanBooking(row pgx.Row, extra ...any) (bookings.Booking, error) {
	var b bookings.Booking
	dest := append([]any{
		&b.ID, &b.ProfessorID, &b.LabID, &b.Start, &b.End, &b.Notes, &b.KitID, &b.Status, &b.CreatedAt,
	}, extra...)
	return b, mapErr(row.Scan(dest...))
}

func (t *tx) InsertBooking(ctx context.Context, in bookings.Booking) (bookings.Booking, error) {
	if in.Status == "" {
		in.Status = bookings.StatusPending
	}
	return scanBooking(t.tx.QueryRow(ctx, `
		INSERT INTO bookings AS b (professor_id, lab_id, starts_at, ends_at, notes, kit_id, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+bookingCols,
		in.ProfessorID, in.LabID, in.Start, in.End, in.Notes, in.KitID, in.Status))
}

func (t *tx) InsertBookingItem(ctx context.Context, it bookings.Item) (bookings.Item, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO booking_items (booking_id, material_id, quantity, form)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, it.BookingID, it.MaterialID, it.Quantity, it.Form).Scan(&it.ID)
	return it, mapErr(err)
}

func (t *tx) GetBooking(ctx context.Context, id int64) (bookings.Booking, error) {
	return scanBooking(t.tx.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings b WHERE b.id=$1`, id))
}

func (t *tx) LockBooking(ctx context.Context, id int64) (bookings.Booking, error) {
	return scanBooking(t.tx.QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings b WHERE b.id=$1 FOR UPDATE`, id))
}

func (t *tx) ListBookings(ctx context.Context, f store.BookingFilter) ([]bookings.Booking, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.ProfessorID != 0 {
		where = append(where, "b.professor_id = "+arg(f.ProfessorID))
	}
	if f.Status != "" {
		where = append(where, "b.status = "+arg(f.Status))
	}
	if f.ExcludeStatus != "" {
		where = append(where, "b.status <> "+arg(f.ExcludeStatus))
	}

	q := `
		SELECT ` + bookingCols + `, COALESCE(l.name,''), COALESCE(k.name,''), COALESCE(u.name,'')
		FROM bookings b
		LEFT JOIN labs l ON l.id = b.lab_id
		LEFT JOIN kits k ON k.id = b.kit_id
		LEFT JOIN users u ON u.id = b.professor_id
	`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.OldestFirst {
		q += " ORDER BY b.starts_at ASC, b.id ASC"
	} else {
		q += " ORDER BY b.starts_at DESC, b.id DESC"
	}

	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bookings.Booking
	for rows.Next() {
		var lab, kit, prof string
		b, err := scanBooking(rows, &lab, &kit, &prof)
		if err != nil {
			return nil, err
		}
		b.LabName, b.KitName, b.ProfessorName = lab, kit, prof
		out = append(out, b)
	}
	return out, rows.Err()
}

func (t *tx) SetBookingStatus(ctx context.Context, id int64, st bookings.Status) error {
	return mustAffect(t.tx.Exec(ctx, `UPDATE bookings SET status=$2 WHERE id=$1`, id, st))
}

func (t *tx) BookingItems(ctx context.Context, bookingID int64) ([]bookings.Item, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT bi.id, bi.booking_id, bi.material_id, bi.quantity, bi.form, bi.prep_weight_g,
		       m.name, m.category, m.unit, m.class
		FROM booking_items bi
		JOIN materials m ON m.id = bi.material_id
		WHERE bi.booking_id = $1
		ORDER BY bi.id
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bookings.Item
	for rows.Next() {
		var it bookings.Item
		if err := rows.Scan(
			&it.ID, &it.BookingID, &it.MaterialID, &it.Quantity, &it.Form, &it.PrepWeight,
			&it.MaterialName, &it.Category, &it.Unit, &it.Class,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *tx) SetItemPrepWeight(ctx context.Context, itemID int64, w decimal.Decimal) error {
	return mustAffect(t.tx.Exec(ctx, `UPDATE booking_items SET prep_weight_g=$2 WHERE id=$1`, itemID, w))
}
