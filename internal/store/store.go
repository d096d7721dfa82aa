// Package store defines the transactional persistence contract used by the
// services. Every service call runs inside exactly one Store.InTx; the Tx
// handed to the callback is the only way to reach the data.
package store

import (
	"context"
	"errors"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrUniqueViolation = errors.New("store: unique violation")
	ErrForeignKey      = errors.New("store: foreign key violation")
	ErrCheckViolation  = errors.New("store: check violation")
)

type Store interface {
	// InTx runs fn in one transaction: committed when fn returns nil,
	// rolled back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against a read-only consistent snapshot.
	View(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	MaterialRepo
	LedgerRepo
	KitRepo
	BookingRepo
	UserRepo
	LabRepo

	// Savepoint runs fn in a nested scope. If fn fails only the work done
	// inside it is undone and the outer transaction stays usable.
	Savepoint(ctx context.Context, fn func(tx Tx) error) error
}

type MaterialRepo interface {
	InsertMaterial(ctx context.Context, m materials.Material) (materials.Material, error)
	GetMaterial(ctx context.Context, id int64) (materials.Material, error)
	// LockMaterial reads the material and holds its row until the transaction ends.
	LockMaterial(ctx context.Context, id int64) (materials.Material, error)
	ListMaterials(ctx context.Context) ([]materials.Material, error)
	SetMaterialQuantity(ctx context.Context, id int64, qty decimal.Decimal) error
	DeleteMaterial(ctx context.Context, id int64) error
}

type LedgerRepo interface {
	InsertEntry(ctx context.Context, e inventory.Entry) (inventory.Entry, error)
	// LastEntry returns the newest entry by creation order, locked.
	LastEntry(ctx context.Context) (inventory.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	// ListEntries returns entries newest first. materialID 0 means all materials;
	// limit <= 0 means no limit.
	ListEntries(ctx context.Context, materialID int64, limit int) ([]inventory.Entry, error)
}

type KitRepo interface {
	InsertKit(ctx context.Context, name string, ownerID int64) (kits.Kit, error)
	GetKit(ctx context.Context, id int64) (kits.Kit, error)
	ListKits(ctx context.Context) ([]kits.Kit, error)
	RenameKit(ctx context.Context, id int64, name string) error
	// KitItems returns template lines in storage order with material details.
	KitItems(ctx context.Context, kitID int64) ([]kits.Item, error)
	InsertKitItems(ctx context.Context, kitID int64, items []kits.Item) error
	DeleteKitItems(ctx context.Context, kitID int64) error
	KitInUse(ctx context.Context, kitID int64) (bool, error)
	DeleteKit(ctx context.Context, id int64) error
}

type BookingFilter struct {
	ProfessorID   int64           // 0 = any
	Status        bookings.Status // "" = any
	ExcludeStatus bookings.Status // "" = none
	OldestFirst   bool
}

type BookingRepo interface {
	InsertBooking(ctx context.Context, b bookings.Booking) (bookings.Booking, error)
	InsertBookingItem(ctx context.Context, it bookings.Item) (bookings.Item, error)
	GetBooking(ctx context.Context, id int64) (bookings.Booking, error)
	// LockBooking reads the booking and holds its row until the transaction ends.
	LockBooking(ctx context.Context, id int64) (bookings.Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]bookings.Booking, error)
	SetBookingStatus(ctx context.Context, id int64, st bookings.Status) error
	// BookingItems returns the ad-hoc lines in storage order with material details.
	BookingItems(ctx context.Context, bookingID int64) ([]bookings.Item, error)
	SetItemPrepWeight(ctx context.Context, itemID int64, w decimal.Decimal) error
}

type UserRepo interface {
	InsertUser(ctx context.Context, u users.User) (users.User, error)
	GetUser(ctx context.Context, id int64) (users.User, error)
	GetUserByEmail(ctx context.Context, email string) (users.User, error)
	ListUsers(ctx context.Context) ([]users.User, error)
	SetPasswordHash(ctx context.Context, email, hash string) error
	DeleteUser(ctx context.Context, id int64) error
}

type LabRepo interface {
	InsertLab(ctx context.Context, l labs.Lab) (labs.Lab, error)
	GetLab(ctx context.Context, id int64) (labs.Lab, error)
	ListLabs(ctx context.Context) ([]labs.Lab, error)
}
