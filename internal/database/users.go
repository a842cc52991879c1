package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, role, password_hash, is_active`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.IsActive)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active`, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active`, id))
}

type CreateUserParams struct {
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `
		INSERT INTO users (name, email, role, password_hash, is_active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING `+userColumns,
		arg.Name, arg.Email, arg.Role, arg.PasswordHash))
}
