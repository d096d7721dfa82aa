package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/store"
)

type Labs struct{ st store.Store }

func NewLabs(st store.Store) *Labs { return &Labs{st: st} }

func (s *Labs) Create(ctx context.Context, p auth.Principal, l labs.Lab) (labs.Lab, error) {
	if !auth.Allowed(p.Role, auth.ManageLabs) {
		return labs.Lab{}, ErrForbidden
	}
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return labs.Lab{}, invalid("name", "required")
	}
	if l.Capacity < 0 {
		return labs.Lab{}, invalid("capacity", "must not be negative")
	}
	var out labs.Lab
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.InsertLab(ctx, l)
		if errors.Is(err, store.ErrUniqueViolation) {
			return fmt.Errorf("lab %q: %w", l.Name, ErrDuplicateName)
		}
		return err
	})
	return out, err
}

func (s *Labs) List(ctx context.Context) ([]labs.Lab, error) {
	var out []labs.Lab
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListLabs(ctx)
		return err
	})
	return out, err
}
