package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/infra/metrics"
	"github.com/Spok95/labsched/internal/store"
)

type UndoResult struct {
	Entry           inventory.Entry
	MaterialRemoved bool
	Message         string
}

// Undo reverts the newest stock log entry and nothing older.
type Undo struct {
	st      store.Store
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewUndo(st store.Store, log *slog.Logger, m *metrics.Metrics) *Undo {
	return &Undo{st: st, log: log, metrics: m}
}

// UndoLast reverts the newest entry if its material still holds the quantity
// the entry left behind. An entry that created the material removes the
// material too when nothing else refers to it; otherwise the quantity is
// put back like any other entry.
func (u *Undo) UndoLast(ctx context.Context, p auth.Principal) (UndoResult, error) {
	if !auth.Allowed(p.Role, auth.UndoStock) {
		return UndoResult{}, ErrForbidden
	}

	var res UndoResult
	err := u.st.InTx(ctx, func(tx store.Tx) error {
		e, err := tx.LastEntry(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNothingToUndo
		}
		if err != nil {
			return err
		}
		res.Entry = e

		m, err := tx.LockMaterial(ctx, e.MaterialID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("material %d: %w", e.MaterialID, ErrStaleMaterialReference)
		}
		if err != nil {
			return err
		}
		if !m.Quantity.Equal(e.After) {
			return &ConcurrentModificationError{MaterialID: m.ID, Logged: e.After, Current: m.Quantity}
		}

		if e.IsCreation() {
			err := tx.Savepoint(ctx, func(sp store.Tx) error {
				if err := sp.DeleteEntry(ctx, e.ID); err != nil {
					return err
				}
				return sp.DeleteMaterial(ctx, m.ID)
			})
			if err == nil {
				res.MaterialRemoved = true
				res.Message = fmt.Sprintf("material %q removed", m.Name)
				return nil
			}
			u.log.Info("creation undo kept material", "material_id", m.ID, "err", err)
		}

		if err := tx.SetMaterialQuantity(ctx, m.ID, e.Before); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, e.ID); err != nil {
			return err
		}
		res.Message = fmt.Sprintf("%s restored from %s to %s %s", m.Name, e.After, e.Before, m.Unit)
		return nil
	})
	if err != nil {
		u.metrics.Undo(undoOutcome(err))
		u.log.Warn("undo refused", "actor_id", p.UserID, "err", err)
		return UndoResult{}, err
	}

	outcome := "reverted"
	if res.MaterialRemoved {
		outcome = "removed"
	}
	u.metrics.Undo(outcome)
	u.log.Info("stock undo",
		"entry_id", res.Entry.ID,
		"material_id", res.Entry.MaterialID,
		"delta", res.Entry.Delta.String(),
		"material_removed", res.MaterialRemoved,
		"actor_id", p.UserID,
	)
	return res, nil
}

func undoOutcome(err error) string {
	switch {
	case errors.Is(err, ErrNothingToUndo):
		return "empty"
	case errors.Is(err, ErrConcurrentModification), errors.Is(err, ErrStaleMaterialReference):
		return "conflict"
	default:
		return "error"
	}
}
