package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/kits"
	"github.com/Spok95/labsched/internal/domain/materials"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/store"
)

// KitInput creates a kit when ID is 0 and replaces kit ID otherwise.
type KitInput struct {
	ID    int64
	Name  string
	Items []kits.Item
}

type Kits struct {
	st  store.Store
	log *slog.Logger
}

func NewKits(st store.Store, log *slog.Logger) *Kits { return &Kits{st: st, log: log} }

func (in *KitInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "required")
	}
	seen := make(map[int64]bool, len(in.Items))
	for i := range in.Items {
		it := &in.Items[i]
		if it.MaterialID <= 0 {
			return invalid("items", "line %d: material_id required", i+1)
		}
		if seen[it.MaterialID] {
			return invalid("items", "material %d listed twice", it.MaterialID)
		}
		seen[it.MaterialID] = true
		if !it.Quantity.IsPositive() {
			return invalid("items", "line %d: quantity must be positive", i+1)
		}
		if err := checkQuantity("items", it.Quantity); err != nil {
			return err
		}
		f, err := materials.ParseForm(string(it.Form))
		if err != nil {
			return invalid("items", "line %d: %v", i+1, err)
		}
		it.Form = f
	}
	return nil
}

// Upsert creates a kit or renames one and replaces all of its lines.
func (s *Kits) Upsert(ctx context.Context, p auth.Principal, in KitInput) (kits.Kit, error) {
	if !auth.Allowed(p.Role, auth.ManageKits) {
		return kits.Kit{}, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return kits.Kit{}, err
	}

	var k kits.Kit
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		id := in.ID
		if id == 0 {
			created, err := tx.InsertKit(ctx, in.Name, p.UserID)
			if err != nil {
				return kitErr(err, in.Name)
			}
			id = created.ID
		} else {
			cur, err := tx.GetKit(ctx, id)
			if err != nil {
				return notFound(err, "kit", id)
			}
			if cur.OwnerID != p.UserID {
				return ErrForbidden
			}
			if err := tx.RenameKit(ctx, id, in.Name); err != nil {
				return kitErr(err, in.Name)
			}
			if err := tx.DeleteKitItems(ctx, id); err != nil {
				return err
			}
		}

		for _, it := range in.Items {
			if _, err := tx.GetMaterial(ctx, it.MaterialID); err != nil {
				return notFound(err, "material", it.MaterialID)
			}
		}
		if err := tx.InsertKitItems(ctx, id, in.Items); err != nil {
			return err
		}
		var err error
		k, err = tx.GetKit(ctx, id)
		return err
	})
	if err != nil {
		return kits.Kit{}, err
	}
	s.log.Info("kit saved", "kit_id", k.ID, "items", len(k.Items), "actor_id", p.UserID)
	return k, nil
}

// Delete removes a kit and its lines unless a booking still references it.
func (s *Kits) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if !auth.Allowed(p.Role, auth.DeleteKit) {
		return ErrForbidden
	}
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		k, err := tx.GetKit(ctx, id)
		if err != nil {
			return notFound(err, "kit", id)
		}
		if p.Role == users.RoleProfessor && k.OwnerID != p.UserID {
			return ErrForbidden
		}
		used, err := tx.KitInUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("kit %q: %w", k.Name, ErrKitInUse)
		}
		if err := tx.DeleteKitItems(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteKit(ctx, id); err != nil {
			if errors.Is(err, store.ErrForeignKey) {
				return fmt.Errorf("kit %q: %w", k.Name, ErrKitInUse)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("kit deleted", "kit_id", id, "actor_id", p.UserID)
	return nil
}

func (s *Kits) List(ctx context.Context, p auth.Principal) ([]kits.Kit, error) {
	if !auth.Allowed(p.Role, auth.ViewMaterials) {
		return nil, ErrForbidden
	}
	var out []kits.Kit
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListKits(ctx)
		return err
	})
	return out, err
}

func kitErr(err error, name string) error {
	if errors.Is(err, store.ErrUniqueViolation) {
		return fmt.Errorf("kit %q: %w", name, ErrDuplicateName)
	}
	return err
}
