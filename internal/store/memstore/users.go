package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/Spok95/labsched/internal/domain/bookings"
	"github.com/Spok95/labsched/internal/domain/inventory"
	"github.com/Spok95/labsched/internal/domain/labs"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/store"
)

func (t *tx) InsertUser(_ context.Context, u users.User) (users.User, error) {
	if slices.ContainsFunc(t.st.users, func(x users.User) bool { return x.Email == u.Email }) {
		return users.User{}, uniqueErr("users_email_key")
	}
	u.ID = t.st.next("users")
	u.CreatedAt = t.now()
	t.st.users = append(t.st.users, u)
	return u, nil
}

func (t *tx) GetUser(_ context.Context, id int64) (users.User, error) {
	i := t.userIdx(id)
	if i < 0 {
		return users.User{}, store.ErrNotFound
	}
	return t.st.users[i], nil
}

func (t *tx) GetUserByEmail(_ context.Context, email string) (users.User, error) {
	i := slices.IndexFunc(t.st.users, func(u users.User) bool { return u.Email == email })
	if i < 0 {
		return users.User{}, store.ErrNotFound
	}
	return t.st.users[i], nil
}

func (t *tx) ListUsers(_ context.Context) ([]users.User, error) {
	out := slices.Clone(t.st.users)
	slices.SortStableFunc(out, func(a, b users.User) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (t *tx) SetPasswordHash(_ context.Context, email, hash string) error {
	i := slices.IndexFunc(t.st.users, func(u users.User) bool { return u.Email == email })
	if i < 0 {
		return store.ErrNotFound
	}
	t.st.users[i].PasswordHash = hash
	return nil
}

func (t *tx) DeleteUser(_ context.Context, id int64) error {
	i := t.userIdx(id)
	if i < 0 {
		return store.ErrNotFound
	}
	if slices.ContainsFunc(t.st.bookings, func(b bookings.Booking) bool { return b.ProfessorID == id }) {
		return fkErr("bookings_professor_id_fkey")
	}
	if slices.ContainsFunc(t.st.entries, func(e inventory.Entry) bool { return e.ActorID == id }) {
		return fkErr("stock_log_actor_id_fkey")
	}
	if slices.ContainsFunc(t.st.kits, func(k kitRow) bool { return k.OwnerID == id }) {
		return fkErr("kits_owner_id_fkey")
	}
	t.st.users = slices.Delete(t.st.users, i, i+1)
	return nil
}

func (t *tx) InsertLab(_ context.Context, l labs.Lab) (labs.Lab, error) {
	if slices.ContainsFunc(t.st.labs, func(x labs.Lab) bool { return x.Name == l.Name }) {
		return labs.Lab{}, uniqueErr("labs_name_key")
	}
	l.ID = t.st.next("labs")
	l.CreatedAt = t.now()
	t.st.labs = append(t.st.labs, l)
	return l, nil
}

func (t *tx) GetLab(_ context.Context, id int64) (labs.Lab, error) {
	i := t.labIdx(id)
	if i < 0 {
		return labs.Lab{}, store.ErrNotFound
	}
	return t.st.labs[i], nil
}

func (t *tx) ListLabs(_ context.Context) ([]labs.Lab, error) {
	out := slices.Clone(t.st.labs)
	slices.SortStableFunc(out, func(a, b labs.Lab) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}
