package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/store"
	"github.com/shopspring/decimal"
)

type NewBooking struct {
	LabID int64
	Start time.Time
	End   time.Time
	Notes string
	KitID *int64
	Items []NewBookingItem
}

type NewBookingItem struct {
	MaterialID int64
	Quantity   decimal.Decimal
	Form       materials.Form
}

type Bookings struct {
	st  store.Store
	log *slog.Logger
}

func NewBookings(st store.Store, log *slog.Logger) *Bookings {
	return &Bookings{st: st, log: log}
}

func (in *NewBooking) validate() error {
	if in.LabID <= 0 {
		return invalid("lab_id", "required")
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return invalid("start", "start and end are required")
	}
	if !in.End.After(in.Start) {
		return invalid("end", "must be after start")
	}
	if in.KitID != nil && *in.KitID <= 0 {
		return invalid("kit_id", "must be positive")
	}
	seen := make(map[int64]bool, len(in.Items))
	for i := range in.Items {
		it := &in.Items[i]
		if it.MaterialID <= 0 {
			return invalid("items", "line %d: material_id required", i+1)
		}
		if seen[it.MaterialID] {
			return invalid("items", "material %d listed twice", it.MaterialID)
		}
		seen[it.MaterialID] = true
		if !it.Quantity.IsPositive() {
			return invalid("items", "line %d: quantity must be positive", i+1)
		}
		if err := checkQuantity("items", it.Quantity); err != nil {
			return err
		}
		f, err := materials.ParseForm(string(it.Form))
		if err != nil {
			return invalid("items", "line %d: %v", i+1, err)
		}
		it.Form = f
	}
	return nil
}

// Create stores a pending booking for the calling professor together with
// its ad-hoc material lines.
func (s *Bookings) Create(ctx context.Context, p auth.Principal, in NewBooking) (bookings.Booking, error) {
	if !auth.Allowed(p.Role, auth.CreateBooking) {
		return bookings.Booking{}, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return bookings.Booking{}, err
	}

	var b bookings.Booking
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetLab(ctx, in.LabID); err != nil {
			return notFound(err, "lab", in.LabID)
		}
		if in.KitID != nil {
			if _, err := tx.GetKit(ctx, *in.KitID); err != nil {
				return notFound(err, "kit", *in.KitID)
			}
		}
		var err error
		b, err = tx.InsertBooking(ctx, bookings.Booking{
			ProfessorID: p.UserID,
			LabID:       in.LabID,
			Start:       in.Start,
			End:         in.End,
			Notes:       in.Notes,
			KitID:       in.KitID,
			Status:      bookings.StatusPending,
		})
		if err != nil {
			return err
		}
		for _, it := range in.Items {
			if _, err := tx.GetMaterial(ctx, it.MaterialID); err != nil {
				return notFound(err, "material", it.MaterialID)
			}
			if _, err := tx.InsertBookingItem(ctx, bookings.Item{
				BookingID:  b.ID,
				MaterialID: it.MaterialID,
				Quantity:   it.Quantity,
				Form:       it.Form,
			}); err != nil {
				return err
			}
		}
		return s.fill(ctx, tx, &b)
	})
	if err != nil {
		return bookings.Booking{}, err
	}
	s.log.Info("booking created", "booking_id", b.ID, "professor_id", p.UserID, "lab_id", b.LabID)
	return b, nil
}

// Get returns one booking to its owner or to staff.
func (s *Bookings) Get(ctx context.Context, p auth.Principal, id int64) (bookings.Booking, error) {
	var b bookings.Booking
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		if b, err = tx.GetBooking(ctx, id); err != nil {
			return notFound(err, "booking", id)
		}
		if b.ProfessorID != p.UserID && !auth.Allowed(p.Role, auth.ViewAllBookings) {
			return ErrForbidden
		}
		return s.fill(ctx, tx, &b)
	})
	return b, err
}

// ListOwn returns the caller's bookings, newest first.
func (s *Bookings) ListOwn(ctx context.Context, p auth.Principal) ([]bookings.Booking, error) {
	if !auth.Allowed(p.Role, auth.CreateBooking) {
		return nil, ErrForbidden
	}
	return s.list(ctx, store.BookingFilter{ProfessorID: p.UserID})
}

// ListPending returns the review queue, oldest first.
func (s *Bookings) ListPending(ctx context.Context, p auth.Principal) ([]bookings.Booking, error) {
	if !auth.Allowed(p.Role, auth.ViewAllBookings) {
		return nil, ErrForbidden
	}
	return s.list(ctx, store.BookingFilter{Status: bookings.StatusPending, OldestFirst: true})
}

// ListHistory returns every booking already reviewed.
func (s *Bookings) ListHistory(ctx context.Context, p auth.Principal) ([]bookings.Booking, error) {
	if !auth.Allowed(p.Role, auth.ViewAllBookings) {
		return nil, ErrForbidden
	}
	return s.list(ctx, store.BookingFilter{ExcludeStatus: bookings.StatusPending})
}

// ListAll is the administrator's full listing.
func (s *Bookings) ListAll(ctx context.Context, p auth.Principal) ([]bookings.Booking, error) {
	if !auth.Allowed(p.Role, auth.ListAllBookings) {
		return nil, ErrForbidden
	}
	return s.list(ctx, store.BookingFilter{})
}

func (s *Bookings) list(ctx context.Context, f store.BookingFilter) ([]bookings.Booking, error) {
	var out []bookings.Booking
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		if out, err = tx.ListBookings(ctx, f); err != nil {
			return err
		}
		for i := range out {
			if err := s.fill(ctx, tx, &out[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (s *Bookings) fill(ctx context.Context, tx store.Tx, b *bookings.Booking) error {
	items, err := tx.BookingItems(ctx, b.ID)
	if err != nil {
		return err
	}
	b.Items = items
	b.Materials, err = Resolve(ctx, tx, b.ID, b.KitID)
	return err
}
