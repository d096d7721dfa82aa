package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/infra/metrics"
	"github.com/Spok95/labsched/internal/store"
	"github.com/Spok95/labsched/internal/store/memstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type fixture struct {
	st    *memstore.Store
	reg   *prometheus.Registry
	notes *recorder

	ledger    *Ledger
	lifecycle *Lifecycle
	undo      *Undo
	kits      *Kits
	materials *Materials
	bookings  *Bookings
	users     *Users
	labs      *Labs

	admin, prof, prof2, tech auth.Principal
	labID                    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{st: memstore.New(), reg: prometheus.NewRegistry(), notes: &recorder{}}
	m := metrics.New(f.reg)

	f.ledger = NewLedger(f.st, log, m)
	f.lifecycle = NewLifecycle(f.st, f.ledger, log, m, f.notes)
	f.undo = NewUndo(f.st, log, m)
	f.kits = NewKits(f.st, log)
	f.materials = NewMaterials(f.st, f.ledger, log, f.notes)
	f.bookings = NewBookings(f.st, log)
	f.users = NewUsers(f.st, log, bcrypt.MinCost)
	f.labs = NewLabs(f.st)

	err := f.st.InTx(context.Background(), func(tx store.Tx) error {
		add := func(name string, role users.Role) auth.Principal {
			u, err := tx.InsertUser(context.Background(), users.User{
				Name: name, Email: name + "@lab.local", Role: role, PasswordHash: "x",
			})
			if err != nil {
				t.Fatalf("insert user %s: %v", name, err)
			}
			return auth.Principal{UserID: u.ID, Role: role}
		}
		f.admin = add("admin", users.RoleAdmin)
		f.prof = add("prof", users.RoleProfessor)
		f.prof2 = add("prof2", users.RoleProfessor)
		f.tech = add("tech", users.RoleTechnician)

		l, err := tx.InsertLab(context.Background(), labs.Lab{Name: "Química 1", Capacity: 20})
		f.labID = l.ID
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) consumable(t *testing.T, name, qty string) materials.Material {
	t.Helper()
	return f.material(t, name, materials.ClassConsumable, qty)
}

func (f *fixture) material(t *testing.T, name string, class materials.Class, qty string) materials.Material {
	t.Helper()
	m, err := f.materials.Create(context.Background(), f.tech, NewMaterial{
		Name: name, Category: "reagente", Class: class, Quantity: dec(qty), Unit: materials.UnitG,
	})
	if err != nil {
		t.Fatalf("create material %s: %v", name, err)
	}
	return m
}

func (f *fixture) qty(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	var q decimal.Decimal
	err := f.st.View(context.Background(), func(tx store.Tx) error {
		m, err := tx.GetMaterial(context.Background(), id)
		q = m.Quantity
		return err
	})
	if err != nil {
		t.Fatalf("get material %d: %v", id, err)
	}
	return q
}

func (f *fixture) entries(t *testing.T) []inventory.Entry {
	t.Helper()
	var out []inventory.Entry
	err := f.st.View(context.Background(), func(tx store.Tx) error {
		var err error
		out, err = tx.ListEntries(context.Background(), 0, 0)
		return err
	})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	return out
}

func (f *fixture) kit(t *testing.T, name string, items ...kits.Item) kits.Kit {
	t.Helper()
	k, err := f.kits.Upsert(context.Background(), f.prof, KitInput{Name: name, Items: items})
	if err != nil {
		t.Fatalf("upsert kit %s: %v", name, err)
	}
	return k
}

func (f *fixture) booking(t *testing.T, kitID *int64, items ...NewBookingItem) bookings.Booking {
	t.Helper()
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	b, err := f.bookings.Create(context.Background(), f.prof, NewBooking{
		LabID: f.labID, Start: start, End: start.Add(2 * time.Hour), KitID: kitID, Items: items,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func (f *fixture) status(t *testing.T, id int64) bookings.Status {
	t.Helper()
	var st bookings.Status
	err := f.st.View(context.Background(), func(tx store.Tx) error {
		b, err := tx.GetBooking(context.Background(), id)
		st = b.Status
		return err
	})
	if err != nil {
		t.Fatalf("get booking %d: %v", id, err)
	}
	return st
}

func solid(id int64, q string) NewBookingItem {
	return NewBookingItem{MaterialID: id, Quantity: dec(q), Form: materials.FormSolid}
}

func solution(id int64, q string) NewBookingItem {
	return NewBookingItem{MaterialID: id, Quantity: dec(q), Form: materials.FormSolution}
}
