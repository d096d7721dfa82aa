package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/infra/metrics"
	"github.com/Spok95/labsched/internal/store"
	"github.com/shopspring/decimal"
)

// Delta is one requested change to a material's on-hand quantity.
type Delta struct {
	MaterialID int64
	Amount     decimal.Decimal // > 0 receipt, < 0 deduction
	ActorID    int64
	BookingID  *int64
}

// Ledger is the only writer of material quantities. It never opens a
// transaction of its own: callers pass the tx their operation runs in.
type Ledger struct {
	st      store.Store
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewLedger(st store.Store, log *slog.Logger, m *metrics.Metrics) *Ledger {
	return &Ledger{st: st, log: log, metrics: m}
}

// Apply locks the material, checks that a deduction leaves it non-negative,
// writes the new quantity and appends a log entry. A zero amount changes
// nothing and returns (nil, nil).
func (l *Ledger) Apply(ctx context.Context, tx store.Tx, d Delta) (*inventory.Entry, error) {
	if d.Amount.IsZero() {
		return nil, nil
	}

	m, err := tx.LockMaterial(ctx, d.MaterialID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("material %d: %w", d.MaterialID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	after := m.Quantity.Add(d.Amount)
	if after.IsNegative() {
		return nil, &InsufficientStockError{
			MaterialID: m.ID,
			Name:       m.Name,
			Required:   d.Amount.Neg(),
			Available:  m.Quantity,
		}
	}

	if after.GreaterThanOrEqual(maxQuantity) {
		return nil, invalid("quantity", "material %d would hold %s, out of range", m.ID, after)
	}

	if err := tx.SetMaterialQuantity(ctx, m.ID, after); err != nil {
		return nil, fmt.Errorf("set quantity of material %d: %w", m.ID, err)
	}
	e, err := tx.InsertEntry(ctx, inventory.Entry{
		MaterialID: m.ID,
		Before:     m.Quantity,
		After:      after,
		Delta:      d.Amount,
		ActorID:    d.ActorID,
		BookingID:  d.BookingID,
	})
	if err != nil {
		return nil, fmt.Errorf("log movement of material %d: %w", m.ID, err)
	}

	l.log.Debug("stock applied",
		"material_id", m.ID,
		"delta", d.Amount.String(),
		"before", m.Quantity.String(),
		"after", after.String(),
		"actor_id", d.ActorID,
	)
	l.metrics.Movement(string(e.Direction()))
	return &e, nil
}

// History lists log entries newest first; materialID 0 lists every material.
func (l *Ledger) History(ctx context.Context, materialID int64, limit int) ([]inventory.Entry, error) {
	var out []inventory.Entry
	err := l.st.View(ctx, func(tx store.Tx) error {
		if materialID != 0 {
			if _, err := tx.GetMaterial(ctx, materialID); err != nil {
				return notFound(err, "material", materialID)
			}
		}
		var err error
		out, err = tx.ListEntries(ctx, materialID, limit)
		return err
	})
	return out, err
}

// lowStock returns the materials among ids that are at or below their alert level.
func lowStock(ctx context.Context, tx store.Tx, ids []int64) ([]materials.Material, error) {
	var out []materials.Material
	for _, id := range ids {
		m, err := tx.GetMaterial(ctx, id)
		if err != nil {
			return nil, err
		}
		if m.LowStock() {
			out = append(out, m)
		}
	}
	return out, nil
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}
