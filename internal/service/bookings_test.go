package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/labs"
)

func TestBookings_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.consumable(t, "A", "10")
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	missingKit := int64(999)

	base := func() NewBooking {
		return NewBooking{LabID: f.labID, Start: start, End: start.Add(time.Hour)}
	}
	tests := []struct {
		name string
		mut  func(*NewBooking)
		want error
	}{
		{"no lab", func(b *NewBooking) { b.LabID = 0 }, ErrValidation},
		{"end before start", func(b *NewBooking) { b.End = start.Add(-time.Minute) }, ErrValidation},
		{"zero quantity", func(b *NewBooking) { b.Items = []NewBookingItem{{MaterialID: m.ID}} }, ErrValidation},
		{"four decimals", func(b *NewBooking) { b.Items = []NewBookingItem{solid(m.ID, "0.0001")} }, ErrValidation},
		{"bad form", func(b *NewBooking) {
			b.Items = []NewBookingItem{{MaterialID: m.ID, Quantity: dec("1"), Form: "vapor"}}
		}, ErrValidation},
		{"repeated material", func(b *NewBooking) { b.Items = []NewBookingItem{solid(m.ID, "1"), solid(m.ID, "2")} }, ErrValidation},
		{"unknown lab", func(b *NewBooking) { b.LabID = 999 }, ErrNotFound},
		{"unknown kit", func(b *NewBooking) { b.KitID = &missingKit }, ErrNotFound},
		{"unknown material", func(b *NewBooking) { b.Items = []NewBookingItem{solid(999, "1")} }, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mut(&in)
			if _, err := f.bookings.Create(ctx, f.prof, in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.bookings.Create(ctx, f.tech, base()); !errors.Is(err, ErrForbidden) {
		t.Errorf("technician create err = %v", err)
	}
	all, _ := f.bookings.ListAll(ctx, f.admin)
	if len(all) != 0 {
		t.Errorf("failed creates left %d bookings", len(all))
	}
}

func TestBookings_Listings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.consumable(t, "A", "100")
	b1 := f.booking(t, nil, solid(m.ID, "1"))
	b2 := f.booking(t, nil, solid(m.ID, "2"))
	if _, err := f.lifecycle.SetStatus(ctx, f.tech, confirm(b1.ID, nil)); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if b1.Status != bookings.StatusPending || len(b1.Items) != 1 || len(b1.Materials) != 1 {
		t.Errorf("created = %+v", b1)
	}

	own, err := f.bookings.ListOwn(ctx, f.prof)
	if err != nil || len(own) != 2 {
		t.Fatalf("ListOwn = %d, %v", len(own), err)
	}
	if own[0].LabName != "Química 1" || own[0].ProfessorName != "prof" {
		t.Errorf("names not filled: %+v", own[0])
	}
	if other, _ := f.bookings.ListOwn(ctx, f.prof2); len(other) != 0 {
		t.Errorf("prof2 sees %d bookings", len(other))
	}

	pending, err := f.bookings.ListPending(ctx, f.tech)
	if err != nil || len(pending) != 1 || pending[0].ID != b2.ID {
		t.Errorf("ListPending = %+v, %v", pending, err)
	}
	hist, err := f.bookings.ListHistory(ctx, f.tech)
	if err != nil || len(hist) != 1 || hist[0].ID != b1.ID {
		t.Errorf("ListHistory = %+v, %v", hist, err)
	}
	if _, err := f.bookings.ListPending(ctx, f.prof); !errors.Is(err, ErrForbidden) {
		t.Errorf("professor ListPending err = %v", err)
	}
	if _, err := f.bookings.ListAll(ctx, f.tech); !errors.Is(err, ErrForbidden) {
		t.Errorf("technician ListAll err = %v", err)
	}
	if all, err := f.bookings.ListAll(ctx, f.admin); err != nil || len(all) != 2 {
		t.Errorf("admin ListAll = %d, %v", len(all), err)
	}

	if _, err := f.bookings.Get(ctx, f.prof2, b1.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign Get err = %v", err)
	}
	got, err := f.bookings.Get(ctx, f.prof, b1.ID)
	if err != nil || got.Status != bookings.StatusConfirmed {
		t.Errorf("Get = %+v, %v", got, err)
	}
}

func TestLabs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.labs.Create(ctx, f.admin, labs.Lab{Name: "Química 1"}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := f.labs.Create(ctx, f.tech, labs.Lab{Name: "Física"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("technician err = %v", err)
	}
	if _, err := f.labs.Create(ctx, f.admin, labs.Lab{Name: "Física", Capacity: 30}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, err := f.labs.List(ctx)
	if err != nil || len(list) != 2 || list[0].Name != "Física" {
		t.Errorf("List = %+v, %v", list, err)
	}
}
