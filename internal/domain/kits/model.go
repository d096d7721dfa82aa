package kits

import (
	"time"

	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/shopspring/decimal"
)

type Kit struct {
	ID        int64
	Name      string
	OwnerID   int64
	Items     []Item
	CreatedAt time.Time
}

// Item is one template line of a kit. The material fields are filled on reads.
type Item struct {
	MaterialID int64
	Quantity   decimal.Decimal
	Form       materials.Form

	MaterialName string
	Unit         materials.Unit
	Category     string
	Class        materials.Class
}
