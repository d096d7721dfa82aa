package postgres_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/infra/db"
	"github.com/Spok95/labsched/internal/service"
	"github.com/Spok95/labsched/internal/store"
	"github.com/Spok95/labsched/internal/store/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// openTestStore connects to LABSCHED_TEST_DSN, applies migrations and empties
// every table. The test is skipped when the variable is unset.
func openTestStore(t *testing.T) (*postgres.Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("LABSCHED_TEST_DSN")
	if dsn == "" {
		t.Skip("LABSCHED_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE stock_log, booking_items, bookings, kit_items, kits, materials, labs, users RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return postgres.New(pool), pool
}

func TestPostgres_ConfirmCancelUndo(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger := service.NewLedger(st, log, nil)
	mats := service.NewMaterials(st, ledger, log, nil)
	books := service.NewBookings(st, log)
	life := service.NewLifecycle(st, ledger, log, nil, nil)
	undo := service.NewUndo(st, log, nil)
	kitSvc := service.NewKits(st, log)

	var prof, tech auth.Principal
	var labID int64
	err := st.InTx(ctx, func(tx store.Tx) error {
		p, err := tx.InsertUser(ctx, users.User{Name: "P", Email: "p@lab", Role: users.RoleProfessor, PasswordHash: "x"})
		if err != nil {
			return err
		}
		tc, err := tx.InsertUser(ctx, users.User{Name: "T", Email: "t@lab", Role: users.RoleTechnician, PasswordHash: "x"})
		if err != nil {
			return err
		}
		l, err := tx.InsertLab(ctx, labs.Lab{Name: "L1"})
		prof = auth.Principal{UserID: p.ID, Role: p.Role}
		tech = auth.Principal{UserID: tc.ID, Role: tc.Role}
		labID = l.ID
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	salt, err := mats.Create(ctx, tech, service.NewMaterial{
		Name: "NaCl", Category: "reagente", Class: materials.ClassConsumable,
		Quantity: decimal.NewFromInt(1000), Unit: materials.UnitG,
	})
	if err != nil {
		t.Fatalf("create material: %v", err)
	}

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	bk, err := books.Create(ctx, prof, service.NewBooking{
		LabID: labID, Start: start, End: start.Add(time.Hour),
		Items: []service.NewBookingItem{{MaterialID: salt.ID, Quantity: decimal.NewFromInt(100), Form: materials.FormSolution}},
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	if _, err := life.SetStatus(ctx, tech, service.SetStatusInput{
		BookingID: bk.ID, Target: "confirmado",
		SolutionWeights: map[int64]decimal.Decimal{salt.ID: decimal.NewFromInt(50)},
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := life.SetStatus(ctx, tech, service.SetStatusInput{BookingID: bk.ID, Target: "cancelado"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := undo.UndoLast(ctx, tech); err != nil {
		t.Fatalf("undo: %v", err)
	}
	m, err := mats.Get(ctx, tech, salt.ID)
	if err != nil || !m.Quantity.Equal(decimal.NewFromInt(950)) {
		t.Fatalf("quantity = %s, %v; want 950", m.Quantity, err)
	}

	// A fresh material held by a kit: the creation undo must fall back to
	// the plain reversal inside the same transaction.
	agar, err := mats.Create(ctx, tech, service.NewMaterial{
		Name: "Ágar", Category: "reagente", Class: materials.ClassConsumable,
		Quantity: decimal.NewFromInt(12), Unit: materials.UnitG,
	})
	if err != nil {
		t.Fatalf("create agar: %v", err)
	}
	if _, err := kitSvc.Upsert(ctx, prof, service.KitInput{
		Name: "Cultura", Items: []kits.Item{{MaterialID: agar.ID, Quantity: decimal.NewFromInt(2)}},
	}); err != nil {
		t.Fatalf("kit: %v", err)
	}
	res, err := undo.UndoLast(ctx, tech)
	if err != nil {
		t.Fatalf("undo creation: %v", err)
	}
	if res.MaterialRemoved {
		t.Error("referenced material removed")
	}
	if m, err := mats.Get(ctx, tech, agar.ID); err != nil || !m.Quantity.IsZero() {
		t.Errorf("agar = %s, %v; want 0", m.Quantity, err)
	}

	// A kit referenced by a booking cannot be deleted.
	kitList, _ := kitSvc.List(ctx, prof)
	if len(kitList) != 1 {
		t.Fatalf("kits = %d", len(kitList))
	}
	kitID := kitList[0].ID
	if _, err := books.Create(ctx, prof, service.NewBooking{LabID: labID, Start: start, End: start.Add(time.Hour), KitID: &kitID}); err != nil {
		t.Fatalf("booking with kit: %v", err)
	}
	if err := kitSvc.Delete(ctx, prof, kitID); !errors.Is(err, service.ErrKitInUse) {
		t.Errorf("delete used kit err = %v", err)
	}
}

func TestPostgres_Concurrency(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := service.NewLedger(st, log, nil)
	mats := service.NewMaterials(st, ledger, log, nil)

	var tech auth.Principal
	err := st.InTx(ctx, func(tx store.Tx) error {
		u, err := tx.InsertUser(ctx, users.User{Name: "T", Email: "t@lab", Role: users.RoleTechnician, PasswordHash: "x"})
		tech = auth.Principal{UserID: u.ID, Role: u.Role}
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	m, err := mats.Create(ctx, tech, service.NewMaterial{
		Name: "Etanol", Category: "reagente", Class: materials.ClassConsumable,
		Quantity: decimal.NewFromInt(10), Unit: materials.UnitMl,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Twenty concurrent withdrawals of 1 ml from 10 ml: the row lock lets
	// exactly ten through.
	errs := make(chan error, 20)
	for range 20 {
		go func() {
			_, err := mats.Adjust(ctx, tech, m.ID, decimal.NewFromInt(-1))
			errs <- err
		}()
	}
	var ok, short int
	for range 20 {
		switch err := <-errs; {
		case err == nil:
			ok++
		case errors.Is(err, service.ErrInsufficientStock):
			short++
		default:
			t.Errorf("unexpected err: %v", err)
		}
	}
	if ok != 10 || short != 10 {
		t.Errorf("ok=%d short=%d, want 10/10", ok, short)
	}
}
