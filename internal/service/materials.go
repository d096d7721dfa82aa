package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/infra/notify"
	"github.com/Spok95/labsched/internal/store"
	"github.com/shopspring/decimal"
)

type NewMaterial struct {
	Name        string
	Description string
	Location    string
	Category    string
	Class       materials.Class
	Quantity    decimal.Decimal
	Unit        materials.Unit
}

type Materials struct {
	st     store.Store
	ledger *Ledger
	log    *slog.Logger
	notify notify.Notifier
}

func NewMaterials(st store.Store, ledger *Ledger, log *slog.Logger, n notify.Notifier) *Materials {
	if n == nil {
		n = notify.Nop{}
	}
	return &Materials{st: st, ledger: ledger, log: log, notify: n}
}

func (in *NewMaterial) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(strings.ToLower(in.Category))
	if in.Name == "" {
		return invalid("name", "required")
	}
	if in.Category == "" {
		return invalid("category", "required")
	}
	c, err := materials.ParseClass(string(in.Class))
	if err != nil {
		return invalid("class", "%v", err)
	}
	in.Class = c
	u, err := materials.ParseUnit(string(in.Unit))
	if err != nil {
		return invalid("unit", "%v", err)
	}
	in.Unit = u
	if !in.Quantity.IsPositive() {
		return invalid("quantity", "must be positive")
	}
	return checkQuantity("quantity", in.Quantity)
}

// Create registers a material with zero stock and books the initial
// quantity through the ledger, so the first log entry reads 0 -> quantity.
func (s *Materials) Create(ctx context.Context, p auth.Principal, in NewMaterial) (materials.Material, error) {
	if !auth.Allowed(p.Role, auth.ManageMaterials) {
		return materials.Material{}, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return materials.Material{}, err
	}

	var m materials.Material
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		var err error
		m, err = tx.InsertMaterial(ctx, materials.Material{
			Name:        in.Name,
			Description: in.Description,
			Location:    in.Location,
			Category:    in.Category,
			Class:       in.Class,
			Quantity:    decimal.Zero,
			Unit:        in.Unit,
			Status:      materials.StatusAvailable,
		})
		if err != nil {
			return err
		}
		if _, err := s.ledger.Apply(ctx, tx, Delta{MaterialID: m.ID, Amount: in.Quantity, ActorID: p.UserID}); err != nil {
			return err
		}
		m.Quantity = in.Quantity
		return nil
	})
	if err != nil {
		return materials.Material{}, err
	}
	s.log.Info("material created", "material_id", m.ID, "quantity", m.Quantity.String(), "actor_id", p.UserID)
	return m, nil
}

// Adjust books a manual receipt (delta > 0) or write-off (delta < 0).
func (s *Materials) Adjust(ctx context.Context, p auth.Principal, id int64, delta decimal.Decimal) (inventory.Entry, error) {
	if !auth.Allowed(p.Role, auth.ManageMaterials) {
		return inventory.Entry{}, ErrForbidden
	}
	if delta.IsZero() {
		return inventory.Entry{}, invalid("delta", "must not be zero")
	}
	if err := checkQuantity("delta", delta); err != nil {
		return inventory.Entry{}, err
	}

	var (
		e   *inventory.Entry
		low []materials.Material
	)
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		var err error
		if e, err = s.ledger.Apply(ctx, tx, Delta{MaterialID: id, Amount: delta, ActorID: p.UserID}); err != nil {
			return err
		}
		low, err = lowStock(ctx, tx, []int64{id})
		return err
	})
	if err != nil {
		return inventory.Entry{}, err
	}
	for _, m := range low {
		if err := s.notify.Notify(ctx, fmt.Sprintf("Estoque baixo: %s (%s %s)", m.Name, m.Quantity, m.Unit)); err != nil {
			s.log.Warn("notify failed", "err", err)
		}
	}
	return *e, nil
}

// Delete removes a material that nothing refers to.
func (s *Materials) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if !auth.Allowed(p.Role, auth.ManageMaterials) {
		return ErrForbidden
	}
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		err := tx.DeleteMaterial(ctx, id)
		if errors.Is(err, store.ErrForeignKey) {
			return fmt.Errorf("material %d: %w", id, ErrReferencedElsewhere)
		}
		return notFound(err, "material", id)
	})
	if err != nil {
		return err
	}
	s.log.Info("material deleted", "material_id", id, "actor_id", p.UserID)
	return nil
}

func (s *Materials) List(ctx context.Context, p auth.Principal) ([]materials.Material, error) {
	if !auth.Allowed(p.Role, auth.ViewMaterials) {
		return nil, ErrForbidden
	}
	var out []materials.Material
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListMaterials(ctx)
		return err
	})
	return out, err
}

func (s *Materials) Get(ctx context.Context, p auth.Principal, id int64) (materials.Material, error) {
	if !auth.Allowed(p.Role, auth.ViewMaterials) {
		return materials.Material{}, ErrForbidden
	}
	var m materials.Material
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		m, err = tx.GetMaterial(ctx, id)
		return notFound(err, "material", id)
	})
	return m, err
}

// History is the stock log of one material, or of all when id is 0.
func (s *Materials) History(ctx context.Context, p auth.Principal, id int64, limit int) ([]inventory.Entry, error) {
	if !auth.Allowed(p.Role, auth.ManageMaterials) {
		return nil, ErrForbidden
	}
	return s.ledger.History(ctx, id, limit)
}
