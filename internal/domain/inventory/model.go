package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one row of the stock log. After always equals Before + Delta and
// Delta is never zero.
type Entry struct {
	ID         int64
	MaterialID int64
	Before     decimal.Decimal
	After      decimal.Decimal
	Delta      decimal.Decimal
	ActorID    int64
	BookingID  *int64
	CreatedAt  time.Time
}

type Direction string

const (
	DirIn  Direction = "in"
	DirOut Direction = "out"
)

func (e Entry) Direction() Direction {
	if e.Delta.IsNegative() {
		return DirOut
	}
	return DirIn
}

// IsCreation reports whether the entry looks like the initial stocking of a
// brand-new material: it started from zero and the whole quantity came from
// this single change.
func (e Entry) IsCreation() bool {
	return e.Before.IsZero() && e.After.Equal(e.Delta)
}
