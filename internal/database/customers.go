package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, code, name, phone, email, address, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type ListCustomersParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

// ListCustomers returns customers newest first. When Search is set it matches
// name, code, or phone as a case-insensitive substring.
func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE ($1::text IS NULL
			OR name ILIKE '%' || $1 || '%'
			OR code ILIKE '%' || $1 || '%'
			OR phone ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, `
		SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

type CreateCustomerParams struct {
	Code    string
	Name    string
	Phone   string
	Email   pgtype.Text
	Address pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, `
		INSERT INTO customers (code, name, phone, email, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+customerColumns,
		arg.Code, arg.Name, arg.Phone, arg.Email, arg.Address))
}

type UpdateCustomerParams struct {
	ID      uuid.UUID
	Name    string
	Phone   string
	Email   pgtype.Text
	Address pgtype.Text
}

// UpdateCustomer updates the mutable customer fields. The code is immutable
// once generated.
func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, phone = $3, email = $4, address = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+customerColumns,
		arg.ID, arg.Name, arg.Phone, arg.Email, arg.Address))
}

// DeleteCustomer hard-deletes a customer. Fails with a 23503 foreign key
// error when orders still reference the customer.
func (q *Queries) DeleteCustomer(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM customers WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}

// ListCustomerIDsByPhone returns ids of customers whose phone contains the
// given digit substring.
func (q *Queries) ListCustomerIDsByPhone(ctx context.Context, phone string) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id FROM customers WHERE phone ILIKE '%' || $1 || '%'`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCustomersByIDs fetches customers for a batch of ids in one round-trip.
func (q *Queries) ListCustomersByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+customerColumns+` FROM customers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
