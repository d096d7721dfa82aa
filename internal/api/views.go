package api

import (
	"time"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/shopspring/decimal"
)

type userView struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  users.Role `json:"role"`
}

func viewUser(u users.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type labView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

func viewLab(l labs.Lab) labView {
	return labView{ID: l.ID, Name: l.Name, Location: l.Location, Capacity: l.Capacity}
}

type materialView struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location,omitempty"`
	Category    string           `json:"category"`
	Class       materials.Class  `json:"class"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        materials.Unit   `json:"unit"`
	Status      materials.Status `json:"status"`
	LowStock    bool             `json:"low_stock"`
}

func viewMaterial(m materials.Material) materialView {
	return materialView{
		ID: m.ID, Name: m.Name, Description: m.Description, Location: m.Location,
		Category: m.Category, Class: m.Class, Quantity: m.Quantity, Unit: m.Unit,
		Status: m.Status, LowStock: m.LowStock(),
	}
}

type entryView struct {
	ID         int64           `json:"id"`
	MaterialID int64           `json:"material_id"`
	Before     decimal.Decimal `json:"before"`
	After      decimal.Decimal `json:"after"`
	Delta      decimal.Decimal `json:"delta"`
	ActorID    int64           `json:"actor_id"`
	BookingID  *int64          `json:"booking_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func viewEntry(e inventory.Entry) entryView {
	return entryView{
		ID: e.ID, MaterialID: e.MaterialID, Before: e.Before, After: e.After, Delta: e.Delta,
		ActorID: e.ActorID, BookingID: e.BookingID, CreatedAt: e.CreatedAt,
	}
}

type kitItemView struct {
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         materials.Unit  `json:"unit,omitempty"`
	Form         materials.Form  `json:"form"`
}

type kitView struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name"`
	OwnerID int64         `json:"owner_id"`
	Items   []kitItemView `json:"items"`
}

func viewKit(k kits.Kit) kitView {
	v := kitView{ID: k.ID, Name: k.Name, OwnerID: k.OwnerID, Items: make([]kitItemView, 0, len(k.Items))}
	for _, it := range k.Items {
		v.Items = append(v.Items, kitItemView{
			MaterialID: it.MaterialID, MaterialName: it.MaterialName,
			Quantity: it.Quantity, Unit: it.Unit, Form: it.Form,
		})
	}
	return v
}

type resolvedView struct {
	MaterialID int64            `json:"material_id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	Class      materials.Class  `json:"class"`
	Unit       materials.Unit   `json:"unit"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Form       materials.Form   `json:"form"`
	FromKit    bool             `json:"from_kit"`
	ItemID     *int64           `json:"item_id,omitempty"`
	PrepWeight *decimal.Decimal `json:"prep_weight,omitempty"`
}

type bookingView struct {
	ID            int64           `json:"id"`
	ProfessorID   int64           `json:"professor_id"`
	ProfessorName string          `json:"professor_name,omitempty"`
	LabID         int64           `json:"lab_id"`
	LabName       string          `json:"lab_name,omitempty"`
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	Notes         string          `json:"notes,omitempty"`
	KitID         *int64          `json:"kit_id,omitempty"`
	KitName       string          `json:"kit_name,omitempty"`
	Status        bookings.Status `json:"status"`
	Materials     []resolvedView  `json:"materials"`
	CreatedAt     time.Time       `json:"created_at"`
}

func viewBooking(b bookings.Booking) bookingView {
	v := bookingView{
		ID: b.ID, ProfessorID: b.ProfessorID, ProfessorName: b.ProfessorName,
		LabID: b.LabID, LabName: b.LabName, Start: b.Start, End: b.End, Notes: b.Notes,
		KitID: b.KitID, KitName: b.KitName, Status: b.Status, CreatedAt: b.CreatedAt,
		Materials: make([]resolvedView, 0, len(b.Materials)),
	}
	for _, r := range b.Materials {
		v.Materials = append(v.Materials, resolvedView{
			MaterialID: r.MaterialID, Name: r.Name, Category: r.Category, Class: r.Class,
			Unit: r.Unit, Quantity: r.Quantity, Form: r.Form, FromKit: r.Source == bookings.SourceKit,
			ItemID: r.ItemID, PrepWeight: r.PrepWeight,
		})
	}
	return v
}

func viewAll[T, V any](xs []T, f func(T) V) []V {
	out := make([]V, 0, len(xs))
	for _, x := range xs {
		out = append(out, f(x))
	}
	return out
}
