package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/infra/metrics"
	"github.com/Spok95/labsched/internal/infra/notify"
	"github.com/Spok95/labsched/internal/store"
	"github.com/shopspring/decimal"
)

type SetStatusInput struct {
	BookingID int64
	Target    bookings.Status
	// SolutionWeights maps material id to the grams actually used to prepare
	// the solution. Required for every consumable solution on confirmation;
	// entries for other materials are ignored.
	SolutionWeights map[int64]decimal.Decimal
}

// Lifecycle moves bookings between statuses and keeps stock in step: a
// confirmation deducts the consumables once, a later cancellation returns
// them once. Each call is a single transaction.
type Lifecycle struct {
	st      store.Store
	ledger  *Ledger
	log     *slog.Logger
	metrics *metrics.Metrics
	notify  notify.Notifier
}

func NewLifecycle(st store.Store, ledger *Ledger, log *slog.Logger, m *metrics.Metrics, n notify.Notifier) *Lifecycle {
	if n == nil {
		n = notify.Nop{}
	}
	return &Lifecycle{st: st, ledger: ledger, log: log, metrics: m, notify: n}
}

// SetStatus is the reviewer entry point: confirm or reject a pending booking,
// cancel a confirmed one, or mark it completed.
func (l *Lifecycle) SetStatus(ctx context.Context, p auth.Principal, in SetStatusInput) (bookings.Booking, error) {
	if !auth.Allowed(p.Role, auth.ReviewBooking) {
		return bookings.Booking{}, ErrForbidden
	}
	st, err := bookings.ParseStatus(string(in.Target))
	if err != nil {
		return bookings.Booking{}, invalid("status", "%v", err)
	}
	in.Target = st
	return l.move(ctx, p, in, false)
}

// Cancel lets the owning professor or an admin withdraw a pending or
// confirmed booking.
func (l *Lifecycle) Cancel(ctx context.Context, p auth.Principal, bookingID int64) (bookings.Booking, error) {
	if !auth.Allowed(p.Role, auth.CancelOwnBooking) {
		return bookings.Booking{}, ErrForbidden
	}
	return l.move(ctx, p, SetStatusInput{BookingID: bookingID, Target: bookings.StatusCancelled}, true)
}

// Complete closes a confirmed booking. Stock is not touched.
func (l *Lifecycle) Complete(ctx context.Context, p auth.Principal, bookingID int64) (bookings.Booking, error) {
	return l.SetStatus(ctx, p, SetStatusInput{BookingID: bookingID, Target: bookings.StatusCompleted})
}

func (l *Lifecycle) move(ctx context.Context, p auth.Principal, in SetStatusInput, ownerOnly bool) (bookings.Booking, error) {
	var (
		b    bookings.Booking
		from bookings.Status
		low  []materials.Material
	)
	err := l.st.InTx(ctx, func(tx store.Tx) error {
		var err error
		b, err = tx.LockBooking(ctx, in.BookingID)
		if err != nil {
			return notFound(err, "booking", in.BookingID)
		}
		if ownerOnly && p.Role == users.RoleProfessor && b.ProfessorID != p.UserID {
			return ErrForbidden
		}

		from = b.Status
		tr := bookings.TransitionFor(from, in.Target)
		if tr == bookings.TransitionInvalid {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, in.Target)
		}

		resolved, err := Resolve(ctx, tx, b.ID, b.KitID)
		if err != nil {
			return err
		}

		switch tr {
		case bookings.TransitionConfirm:
			touched, err := l.deduct(ctx, tx, p, b.ID, resolved, in.SolutionWeights)
			if err != nil {
				return err
			}
			if low, err = lowStock(ctx, tx, touched); err != nil {
				return err
			}
		case bookings.TransitionRevoke:
			if err := l.restore(ctx, tx, p, b.ID, resolved); err != nil {
				return err
			}
		case bookings.TransitionReject, bookings.TransitionComplete:
		}

		if err := tx.SetBookingStatus(ctx, b.ID, in.Target); err != nil {
			return err
		}
		b.Status = in.Target
		if b.Materials, err = Resolve(ctx, tx, b.ID, b.KitID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			l.metrics.InsufficientStock()
		}
		l.log.Warn("booking transition refused",
			"booking_id", in.BookingID, "target", in.Target, "actor_id", p.UserID, "err", err)
		return bookings.Booking{}, err
	}

	l.metrics.Transition(string(from), string(b.Status))
	l.log.Info("booking transition",
		"booking_id", b.ID, "from", from, "to", b.Status, "actor_id", p.UserID)
	l.announce(ctx, fmt.Sprintf("Agendamento #%d: %s -> %s", b.ID, from, b.Status))
	for _, m := range low {
		l.announce(ctx, fmt.Sprintf("Estoque baixo: %s (%s %s)", m.Name, m.Quantity, m.Unit))
	}
	return b, nil
}

// deduct takes the required quantity of every consumable out of stock. All
// solution weights are checked before the first ledger write.
func (l *Lifecycle) deduct(ctx context.Context, tx store.Tx, p auth.Principal, bookingID int64,
	resolved []bookings.Resolved, weights map[int64]decimal.Decimal,
) ([]int64, error) {
	required := make([]decimal.Decimal, len(resolved))
	for i, r := range resolved {
		if !r.Consumable() {
			continue
		}
		required[i] = r.Quantity
		if r.Form == materials.FormSolution {
			w, ok := weights[r.MaterialID]
			if !ok || !w.IsPositive() {
				return nil, &MissingPrepWeightError{MaterialID: r.MaterialID, Name: r.Name}
			}
			if err := checkQuantity("solution_weights", w); err != nil {
				return nil, err
			}
			required[i] = w
		}
	}

	var touched []int64
	for i, r := range resolved {
		if !r.Consumable() {
			continue
		}
		if r.Form == materials.FormSolution && r.ItemID != nil {
			if err := tx.SetItemPrepWeight(ctx, *r.ItemID, required[i]); err != nil {
				return nil, fmt.Errorf("record weight of item %d: %w", *r.ItemID, err)
			}
		}
		if _, err := l.ledger.Apply(ctx, tx, Delta{
			MaterialID: r.MaterialID,
			Amount:     required[i].Neg(),
			ActorID:    p.UserID,
			BookingID:  &bookingID,
		}); err != nil {
			return nil, err
		}
		touched = append(touched, r.MaterialID)
	}
	return touched, nil
}

// restore returns what a confirmation took. Solutions give back their
// recorded weight; a kit solution has none and returns nothing.
func (l *Lifecycle) restore(ctx context.Context, tx store.Tx, p auth.Principal, bookingID int64, resolved []bookings.Resolved) error {
	for _, r := range resolved {
		if !r.Consumable() {
			continue
		}
		amount := r.Quantity
		if r.Form == materials.FormSolution {
			amount = decimal.Zero
			if r.PrepWeight != nil {
				amount = *r.PrepWeight
			}
		}
		if amount.IsZero() {
			l.log.Debug("nothing to return", "booking_id", bookingID, "material_id", r.MaterialID)
			continue
		}
		if _, err := l.ledger.Apply(ctx, tx, Delta{
			MaterialID: r.MaterialID,
			Amount:     amount,
			ActorID:    p.UserID,
			BookingID:  &bookingID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lifecycle) announce(ctx context.Context, text string) {
	if err := l.notify.Notify(ctx, text); err != nil {
		l.log.Warn("notify failed", "err", err)
	}
}
