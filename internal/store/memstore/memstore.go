// Package memstore is an in-memory store.Store for tests and local runs.
// Transactions are serialized by a single mutex and work on a cloned state
// that replaces the live one only on commit. Foreign keys, unique names and
// the non-negative quantity check mirror the SQL schema.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/store"
	"github.com/shopspring/decimal"
)

type kitRow struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

type kitItemRow struct {
	ID         int64
	KitID      int64
	MaterialID int64
	Quantity   decimal.Decimal
	Form       materials.Form
}

type itemRow struct {
	ID         int64
	BookingID  int64
	MaterialID int64
	Quantity   decimal.Decimal
	Form       materials.Form
	PrepWeight decimal.NullDecimal
}

type state struct {
	users        []users.User
	labs         []labs.Lab
	materials    []materials.Material
	kits         []kitRow
	kitItems     []kitItemRow
	bookings     []bookings.Booking
	bookingItems []itemRow
	entries      []inventory.Entry
	seq          map[string]int64
}

func newState() *state { return &state{seq: map[string]int64{}} }

// clone copies every table. Rows are values and are always replaced, never
// mutated through a shared pointer, so copying the slices is enough.
func (s *state) clone() *state {
	c := &state{
		users:        slices.Clone(s.users),
		labs:         slices.Clone(s.labs),
		materials:    slices.Clone(s.materials),
		kits:         slices.Clone(s.kits),
		kitItems:     slices.Clone(s.kitItems),
		bookings:     slices.Clone(s.bookings),
		bookingItems: slices.Clone(s.bookingItems),
		entries:      slices.Clone(s.entries),
		seq:          make(map[string]int64, len(s.seq)),
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

func (s *state) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store { return &Store{st: newState(), now: time.Now} }

var _ store.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(&tx{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&tx{st: s.st.clone(), now: s.now})
}

type tx struct {
	st  *state
	now func() time.Time
}

var _ store.Tx = (*tx)(nil)

func (t *tx) Savepoint(_ context.Context, fn func(tx store.Tx) error) error {
	saved := t.st.clone()
	if err := fn(t); err != nil {
		*t.st = *saved
		return err
	}
	return nil
}

func fkErr(name string) error     { return fmt.Errorf("%w: %s", store.ErrForeignKey, name) }
func uniqueErr(name string) error { return fmt.Errorf("%w: %s", store.ErrUniqueViolation, name) }
func checkErr(name string) error  { return fmt.Errorf("%w: %s", store.ErrCheckViolation, name) }

