package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func confirm(id int64, weights map[int64]decimal.Decimal) SetStatusInput {
	return SetStatusInput{BookingID: id, Target: bookings.StatusConfirmed, SolutionWeights: weights}
}

func cancel(id int64) SetStatusInput {
	return SetStatusInput{BookingID: id, Target: bookings.StatusCancelled}
}

func TestLifecycle_ConfirmCancelRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acid := f.consumable(t, "HCl", "500")
	base := f.consumable(t, "NaOH", "300")
	flask := f.material(t, "Erlenmeyer", materials.ClassTool, "10")
	k := f.kit(t, "Neutralização", kits.Item{MaterialID: base.ID, Quantity: dec("25")})
	bk := f.booking(t, &k.ID, solid(acid.ID, "40"), solid(flask.ID, "2"))

	got, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, nil))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != bookings.StatusConfirmed {
		t.Errorf("status = %s", got.Status)
	}
	if q := f.qty(t, acid.ID); !q.Equal(dec("460")) {
		t.Errorf("HCl = %s, want 460", q)
	}
	if q := f.qty(t, base.ID); !q.Equal(dec("275")) {
		t.Errorf("NaOH = %s, want 275", q)
	}
	if q := f.qty(t, flask.ID); !q.Equal(dec("10")) {
		t.Errorf("tool moved: %s", q)
	}

	if _, err := f.lifecycle.SetStatus(ctx, f.tech, cancel(bk.ID)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if q := f.qty(t, acid.ID); !q.Equal(dec("500")) {
		t.Errorf("HCl after cancel = %s, want 500", q)
	}
	if q := f.qty(t, base.ID); !q.Equal(dec("300")) {
		t.Errorf("NaOH after cancel = %s, want 300", q)
	}
	if st := f.status(t, bk.ID); st != bookings.StatusCancelled {
		t.Errorf("status = %s, want cancelado", st)
	}

	n, err := testutil.GatherAndCount(f.reg, "labsched_booking_transitions_total")
	if err != nil || n != 2 {
		t.Errorf("transition series = %d (%v), want 2", n, err)
	}
	if f.notes.count() == 0 {
		t.Error("no notification sent")
	}
}

func TestLifecycle_ConfirmTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.consumable(t, "HCl", "100")
	bk := f.booking(t, nil, solid(m.ID, "10"))

	if _, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, nil)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	_, err := f.lifecycle.SetStatus(ctx, f.admin, confirm(bk.ID, nil))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second confirm err = %v, want ErrInvalidTransition", err)
	}
	if q := f.qty(t, m.ID); !q.Equal(dec("90")) {
		t.Errorf("quantity = %s, want 90", q)
	}
}

func TestLifecycle_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plenty := f.consumable(t, "A", "100")
	scarce := f.consumable(t, "B", "3")
	bk := f.booking(t, nil, solid(plenty.ID, "10"), solid(scarce.ID, "5"))
	before := len(f.entries(t))

	_, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, nil))
	var ie *InsufficientStockError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if ie.MaterialID != scarce.ID || !ie.Required.Equal(dec("5")) || !ie.Available.Equal(dec("3")) {
		t.Errorf("detail = %+v", ie)
	}
	if q := f.qty(t, plenty.ID); !q.Equal(dec("100")) {
		t.Errorf("partial deduction survived: A = %s", q)
	}
	if got := len(f.entries(t)); got != before {
		t.Errorf("entries = %d, want %d", got, before)
	}
	if st := f.status(t, bk.ID); st != bookings.StatusPending {
		t.Errorf("status = %s, want pendente", st)
	}
	const want = `
# HELP labsched_insufficient_stock_total Confirmations refused for lack of stock.
# TYPE labsched_insufficient_stock_total counter
labsched_insufficient_stock_total 1
`
	if err := testutil.GatherAndCompare(f.reg, strings.NewReader(want), "labsched_insufficient_stock_total"); err != nil {
		t.Errorf("insufficient metric: %v", err)
	}
}

func TestLifecycle_MissingPrepWeight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	salt := f.consumable(t, "NaCl", "1000")
	acid := f.consumable(t, "HCl", "100")
	bk := f.booking(t, nil, solid(acid.ID, "10"), solution(salt.ID, "100"))

	tests := []struct {
		name    string
		weights map[int64]decimal.Decimal
	}{
		{"absent", nil},
		{"other material", map[int64]decimal.Decimal{acid.ID: dec("5")}},
		{"zero", map[int64]decimal.Decimal{salt.ID: dec("0")}},
		{"negative", map[int64]decimal.Decimal{salt.ID: dec("-1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, tt.weights))
			var me *MissingPrepWeightError
			if !errors.As(err, &me) || me.MaterialID != salt.ID {
				t.Fatalf("err = %v, want MissingPrepWeightError for NaCl", err)
			}
			if q := f.qty(t, acid.ID); !q.Equal(dec("100")) {
				t.Errorf("HCl = %s, want untouched", q)
			}
		})
	}

	_, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, map[int64]decimal.Decimal{salt.ID: dec("0.0004")}))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("sub-milligram weight err = %v, want ErrValidation", err)
	}
	if n := len(f.entries(t)); n != 2 {
		t.Errorf("entries = %d, want only the two creations", n)
	}
}

func TestLifecycle_WeightForSolidIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acid := f.consumable(t, "HCl", "100")
	bk := f.booking(t, nil, solid(acid.ID, "10"))

	b, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, map[int64]decimal.Decimal{acid.ID: dec("0")}))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.Status != bookings.StatusConfirmed {
		t.Errorf("status = %s, want confirmado", b.Status)
	}
	if q := f.qty(t, acid.ID); !q.Equal(dec("90")) {
		t.Errorf("HCl = %s, want 90", q)
	}
}

// NaCl at 1000 g, solution line confirmed with 50 g actually weighed: the
// log reads 1000 -> 950, cancelling returns the recorded 50 g and an undo
// right after the cancellation goes back to 950.
func TestLifecycle_SolutionScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	salt := f.consumable(t, "NaCl", "1000")
	bk := f.booking(t, nil, solution(salt.ID, "100"))

	b, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, map[int64]decimal.Decimal{salt.ID: dec("50")}))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if q := f.qty(t, salt.ID); !q.Equal(dec("950")) {
		t.Fatalf("after confirm = %s, want 950", q)
	}
	last := f.entries(t)[0]
	if !last.Before.Equal(dec("1000")) || !last.After.Equal(dec("950")) || !last.Delta.Equal(dec("-50")) {
		t.Errorf("confirm entry = %+v", last)
	}
	if last.BookingID == nil || *last.BookingID != bk.ID {
		t.Errorf("entry booking = %v, want %d", last.BookingID, bk.ID)
	}
	if w := b.Materials[0].PrepWeight; w == nil || !w.Equal(dec("50")) {
		t.Errorf("recorded weight = %v, want 50", w)
	}

	if _, err := f.lifecycle.SetStatus(ctx, f.tech, cancel(bk.ID)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if q := f.qty(t, salt.ID); !q.Equal(dec("1000")) {
		t.Fatalf("after cancel = %s, want 1000", q)
	}
	last = f.entries(t)[0]
	if !last.Before.Equal(dec("950")) || !last.After.Equal(dec("1000")) || !last.Delta.Equal(dec("50")) {
		t.Errorf("cancel entry = %+v", last)
	}

	n := len(f.entries(t))
	if _, err := f.undo.UndoLast(ctx, f.tech); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if q := f.qty(t, salt.ID); !q.Equal(dec("950")) {
		t.Errorf("after undo = %s, want 950", q)
	}
	if got := len(f.entries(t)); got != n-1 {
		t.Errorf("entries = %d, want %d", got, n-1)
	}
}

func TestLifecycle_KitSolutionNotReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	salt := f.consumable(t, "NaCl", "1000")
	k := f.kit(t, "Soro", kits.Item{MaterialID: salt.ID, Quantity: dec("100"), Form: materials.FormSolution})
	bk := f.booking(t, &k.ID)

	if _, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, map[int64]decimal.Decimal{salt.ID: dec("50")})); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	n := len(f.entries(t))
	if _, err := f.lifecycle.SetStatus(ctx, f.tech, cancel(bk.ID)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if q := f.qty(t, salt.ID); !q.Equal(dec("950")) {
		t.Errorf("quantity = %s, want 950", q)
	}
	if got := len(f.entries(t)); got != n {
		t.Errorf("zero return was logged: entries %d, want %d", got, n)
	}
}

func TestLifecycle_RejectPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.consumable(t, "HCl", "100")
	bk := f.booking(t, nil, solid(m.ID, "10"))
	n := len(f.entries(t))

	if _, err := f.lifecycle.SetStatus(ctx, f.tech, cancel(bk.ID)); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := len(f.entries(t)); got != n {
		t.Errorf("reject touched the ledger")
	}
	if _, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, nil)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("confirm after reject err = %v", err)
	}
}

func TestLifecycle_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.consumable(t, "HCl", "100")

	tests := []struct {
		name    string
		confirm bool
		wantQty string
	}{
		{name: "owner pending", wantQty: "100"},
		{name: "owner confirmed", confirm: true, wantQty: "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bk := f.booking(t, nil, solid(m.ID, "10"))
			if tt.confirm {
				if _, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, nil)); err != nil {
					t.Fatalf("confirm: %v", err)
				}
			}
			if _, err := f.lifecycle.Cancel(ctx, f.prof, bk.ID); err != nil {
				t.Fatalf("Cancel: %v", err)
			}
			if q := f.qty(t, m.ID); !q.Equal(dec(tt.wantQty)) {
				t.Errorf("quantity = %s, want %s", q, tt.wantQty)
			}
		})
	}

	bk := f.booking(t, nil, solid(m.ID, "10"))
	if _, err := f.lifecycle.Cancel(ctx, f.prof2, bk.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other professor err = %v, want ErrForbidden", err)
	}
	if _, err := f.lifecycle.Cancel(ctx, f.tech, bk.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("technician err = %v, want ErrForbidden", err)
	}
	if _, err := f.lifecycle.Cancel(ctx, f.admin, bk.ID); err != nil {
		t.Errorf("admin Cancel: %v", err)
	}
	if _, err := f.lifecycle.Cancel(ctx, f.admin, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown booking err = %v, want ErrNotFound", err)
	}
}

func TestLifecycle_Complete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.consumable(t, "HCl", "100")
	bk := f.booking(t, nil, solid(m.ID, "10"))

	if _, err := f.lifecycle.Complete(ctx, f.tech, bk.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete pending err = %v", err)
	}
	if _, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, nil)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	b, err := f.lifecycle.Complete(ctx, f.tech, bk.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if b.Status != bookings.StatusCompleted {
		t.Errorf("status = %s", b.Status)
	}
	if q := f.qty(t, m.ID); !q.Equal(dec("90")) {
		t.Errorf("quantity = %s, want 90", q)
	}
	if _, err := f.lifecycle.SetStatus(ctx, f.tech, cancel(bk.ID)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel completed err = %v", err)
	}
}

func TestLifecycle_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.lifecycle.SetStatus(ctx, f.prof, confirm(1, nil)); !errors.Is(err, ErrForbidden) {
		t.Errorf("professor review err = %v", err)
	}
	if _, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(9999, nil)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown booking err = %v", err)
	}
	if _, err := f.lifecycle.SetStatus(ctx, f.tech, SetStatusInput{BookingID: 1, Target: "aprovado"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad status err = %v", err)
	}
}

func TestLifecycle_LowStockNotice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.consumable(t, "HCl", "30")
	bk := f.booking(t, nil, solid(m.ID, "15"))

	before := f.notes.count()
	if _, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(bk.ID, nil)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// transition notice plus low-stock notice
	if got := f.notes.count() - before; got != 2 {
		t.Errorf("notifications = %d, want 2", got)
	}
}
