package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/store"
)

type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     users.Role
}

type Users struct {
	st         store.Store
	log        *slog.Logger
	bcryptCost int
}

func NewUsers(st store.Store, log *slog.Logger, bcryptCost int) *Users {
	return &Users{st: st, log: log, bcryptCost: bcryptCost}
}

func (in *NewUser) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = users.NormalizeEmail(in.Email)
	if in.Name == "" {
		return invalid("name", "required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return invalid("email", "invalid address")
	}
	if len(in.Password) < 6 {
		return invalid("password", "at least 6 characters")
	}
	r, err := users.ParseRole(string(in.Role))
	if err != nil {
		return invalid("role", "%v", err)
	}
	in.Role = r
	return nil
}

func (s *Users) Create(ctx context.Context, p auth.Principal, in NewUser) (users.User, error) {
	if !auth.Allowed(p.Role, auth.ManageUsers) {
		return users.User{}, ErrForbidden
	}
	return s.create(ctx, in)
}

func (s *Users) create(ctx context.Context, in NewUser) (users.User, error) {
	if err := in.validate(); err != nil {
		return users.User{}, err
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return users.User{}, fmt.Errorf("hash password: %w", err)
	}

	var u users.User
	err = s.st.InTx(ctx, func(tx store.Tx) error {
		var err error
		u, err = tx.InsertUser(ctx, users.User{Name: in.Name, Email: in.Email, Role: in.Role, PasswordHash: hash})
		if errors.Is(err, store.ErrUniqueViolation) {
			return fmt.Errorf("email %q: %w", in.Email, ErrDuplicateName)
		}
		return err
	})
	if err != nil {
		return users.User{}, err
	}
	s.log.Info("user created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// EnsureAdmin creates the bootstrap administrator when no user has that
// email yet. It is a no-op otherwise.
func (s *Users) EnsureAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.create(ctx, NewUser{Name: name, Email: email, Password: password, Role: users.RoleAdmin})
	if errors.Is(err, ErrDuplicateName) {
		return nil
	}
	return err
}

func (s *Users) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if !auth.Allowed(p.Role, auth.ManageUsers) {
		return ErrForbidden
	}
	if id == p.UserID {
		return invalid("id", "cannot delete yourself")
	}
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		err := tx.DeleteUser(ctx, id)
		if errors.Is(err, store.ErrForeignKey) {
			return fmt.Errorf("user %d: %w", id, ErrReferencedElsewhere)
		}
		return notFound(err, "user", id)
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", "user_id", id, "actor_id", p.UserID)
	return nil
}

func (s *Users) List(ctx context.Context, p auth.Principal) ([]users.User, error) {
	if !auth.Allowed(p.Role, auth.ManageUsers) {
		return nil, ErrForbidden
	}
	var out []users.User
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListUsers(ctx)
		return err
	})
	return out, err
}

// Authenticate checks an email/password pair. When role is not empty the
// account must also have that role.
func (s *Users) Authenticate(ctx context.Context, email, password, role string) (users.User, error) {
	email = users.NormalizeEmail(email)
	var u users.User
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		u, err = tx.GetUserByEmail(ctx, email)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return users.User{}, auth.ErrBadCredentials
	}
	if err != nil {
		return users.User{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return users.User{}, err
	}
	if role != "" {
		r, err := users.ParseRole(role)
		if err != nil || r != u.Role {
			return users.User{}, auth.ErrBadCredentials
		}
	}
	return u, nil
}

// ResetPassword sets a new password for the account with email.
func (s *Users) ResetPassword(ctx context.Context, p auth.Principal, email, password string) error {
	if !auth.Allowed(p.Role, auth.ManageUsers) {
		return ErrForbidden
	}
	email = users.NormalizeEmail(email)
	if email == "" {
		return invalid("email", "required")
	}
	if len(password) < 6 {
		return invalid("password", "at least 6 characters")
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.st.InTx(ctx, func(tx store.Tx) error {
		err := tx.SetPasswordHash(ctx, email, hash)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user %q: %w", email, ErrNotFound)
		}
		return err
	})
	if err != nil {
		return err
	}
	s.log.Info("password reset", "email", email, "actor_id", p.UserID)
	return nil
}

// Names maps every user id to its display name.
func (s *Users) Names(ctx context.Context) (map[int64]string, error) {
	out := map[int64]string{}
	err := s.st.View(ctx, func(tx store.Tx) error {
		us, err := tx.ListUsers(ctx)
		for _, u := range us {
			out[u.ID] = u.Name
		}
		return err
	})
	return out, err
}
