package bookings

import (
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pendente"
	StatusConfirmed Status = "confirmado"
	StatusCancelled Status = "cancelado"
	StatusCompleted Status = "concluido"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(strings.ToLower(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

// Transition is the stock effect of moving a booking between two statuses.
type Transition int

const (
	TransitionInvalid Transition = iota
	TransitionConfirm            // pendente -> confirmado, deducts stock
	TransitionReject             // pendente -> cancelado, no stock effect
	TransitionRevoke             // confirmado -> cancelado, returns stock
	TransitionComplete           // confirmado -> concluido, no stock effect
)

func (t Transition) String() string {
	switch t {
	case TransitionConfirm:
		return "confirm"
	case TransitionReject:
		return "reject"
	case TransitionRevoke:
		return "revoke"
	case TransitionComplete:
		return "complete"
	default:
		return "invalid"
	}
}

// TransitionFor matches every (from, to) pair. Anything not listed is invalid,
// including re-applying the current status.
func TransitionFor(from, to Status) Transition {
	switch {
	case from == StatusPending && to == StatusConfirmed:
		return TransitionConfirm
	case from == StatusPending && to == StatusCancelled:
		return TransitionReject
	case from == StatusConfirmed && to == StatusCancelled:
		return TransitionRevoke
	case from == StatusConfirmed && to == StatusCompleted:
		return TransitionComplete
	default:
		return TransitionInvalid
	}
}

type Booking struct {
	ID          int64
	ProfessorID int64
	LabID       int64
	Start       time.Time
	End         time.Time
	Notes       string
	KitID       *int64
	Status      Status
	CreatedAt   time.Time

	// Filled by listings.
	Items         []Item
	Materials     []Resolved
	LabName       string
	KitName       string
	ProfessorName string
}

// Item is an ad-hoc material line attached directly to one booking.
// PrepWeight is only set for solutions, once the booking is confirmed.
type Item struct {
	ID         int64
	BookingID  int64
	MaterialID int64
	Quantity   decimal.Decimal
	Form       materials.Form
	PrepWeight decimal.NullDecimal

	MaterialName string
	Category     string
	Unit         materials.Unit
	Class        materials.Class
}

// Source tells where a resolved material line came from.
type Source int

const (
	SourceAdHoc Source = iota
	SourceKit
)

// Resolved is one line of a booking's effective material list.
type Resolved struct {
	MaterialID int64
	Name       string
	Category   string
	Unit       materials.Unit
	Class      materials.Class
	Quantity   decimal.Decimal
	Form       materials.Form
	Source     Source
	ItemID     *int64           // set only for SourceAdHoc
	PrepWeight *decimal.Decimal // recorded preparation weight, ad-hoc solutions only
}

func (r Resolved) Consumable() bool { return r.Class == materials.ClassConsumable }
