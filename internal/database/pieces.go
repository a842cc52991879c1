package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const pieceColumns = `id, name, price, unit_type, created_at, updated_at`

func scanPiece(row pgx.Row) (Piece, error) {
	var p Piece
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.UnitType, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type ListPiecesParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

// ListPieces returns catalog pieces ordered by name.
func (q *Queries) ListPieces(ctx context.Context, arg ListPiecesParams) ([]Piece, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+pieceColumns+`
		FROM pieces
		WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%')
		ORDER BY name ASC
		LIMIT $2 OFFSET $3`,
		arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pieces []Piece
	for rows.Next() {
		p, err := scanPiece(rows)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, p)
	}
	return pieces, rows.Err()
}

func (q *Queries) GetPiece(ctx context.Context, id uuid.UUID) (Piece, error) {
	return scanPiece(q.db.QueryRow(ctx, `
		SELECT `+pieceColumns+` FROM pieces WHERE id = $1`, id))
}

type CreatePieceParams struct {
	Name     string
	Price    pgtype.Numeric
	UnitType string
}

func (q *Queries) CreatePiece(ctx context.Context, arg CreatePieceParams) (Piece, error) {
	return scanPiece(q.db.QueryRow(ctx, `
		INSERT INTO pieces (name, price, unit_type)
		VALUES ($1, $2, $3)
		RETURNING `+pieceColumns,
		arg.Name, arg.Price, arg.UnitType))
}

type UpdatePieceParams struct {
	ID       uuid.UUID
	Name     string
	Price    pgtype.Numeric
	UnitType string
}

// UpdatePiece changes the catalog entry. Historical order items keep their
// own unit_price snapshot, so a price change never rewrites old orders.
func (q *Queries) UpdatePiece(ctx context.Context, arg UpdatePieceParams) (Piece, error) {
	return scanPiece(q.db.QueryRow(ctx, `
		UPDATE pieces
		SET name = $2, price = $3, unit_type = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+pieceColumns,
		arg.ID, arg.Name, arg.Price, arg.UnitType))
}

// DeletePiece hard-deletes a piece. Fails with a 23503 foreign key error
// when order items still reference it.
func (q *Queries) DeletePiece(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM pieces WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}

// GetPieceForOrderRow carries the fields the order service snapshots.
type GetPieceForOrderRow struct {
	ID    uuid.UUID
	Name  string
	Price pgtype.Numeric
}

// GetPieceForOrder fetches the current price of a piece for snapshotting
// into an order item.
func (q *Queries) GetPieceForOrder(ctx context.Context, id uuid.UUID) (GetPieceForOrderRow, error) {
	var row GetPieceForOrderRow
	err := q.db.QueryRow(ctx, `
		SELECT id, name, price FROM pieces WHERE id = $1`, id).
		Scan(&row.ID, &row.Name, &row.Price)
	return row, err
}
