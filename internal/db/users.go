package db

import (
	"context"
)

const createUserSQL = `
INSERT INTO users (name, email, phone, password_hash, role)
VALUES (?, ?, ?, ?, ?)
`

type CreateUserParams struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	result, err := q.db.ExecContext(ctx, createUserSQL, arg.Name, arg.Email, arg.Phone, arg.PasswordHash, arg.Role)
	if err != nil {
		return User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

const getUserByIDSQL = `
SELECT id, name, email, phone, password_hash, role, created_at
FROM users WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByIDSQL, id)
	return scanUser(row)
}

const getUserByEmailSQL = `
SELECT id, name, email, phone, password_hash, role, created_at
FROM users WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmailSQL, email)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}
