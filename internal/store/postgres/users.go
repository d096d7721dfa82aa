package postgres

import (
	"context"

	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/jackc/pgx/v5"
)

const userCols = `id, name, email, role, password_hash, created_at`

func scanUser(row pgx.Row) (users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt)
	return u, mapErr(err)
}

func (t *tx) InsertUser(ctx context.Context, u users.User) (users.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `
		INSERT INTO users (name, email, role, password_hash)
		VALUES ($1,$2,$3,$4)
		RETURNING `+userCols,
		u.Name, u.Email, u.Role, u.PasswordHash))
}

func (t *tx) GetUser(ctx context.Context, id int64) (users.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

func (t *tx) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
}

func (t *tx) ListUsers(ctx context.Context) ([]users.User, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []users.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (t *tx) SetPasswordHash(ctx context.Context, email, hash string) error {
	return mustAffect(t.tx.Exec(ctx, `UPDATE users SET password_hash=$2 WHERE email=$1`, email, hash))
}

func (t *tx) DeleteUser(ctx context.Context, id int64) error {
	return mustAffect(t.tx.Exec(ctx, `DELETE FROM users WHERE id=$1`, id))
}
