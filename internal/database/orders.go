package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, code, customer_id, is_anonymous, total, status, delivery_type,
	pickup_date, pickup_time, delivery_date, delivery_time, delivery_address,
	notes, special_instructions, payment_method, is_paid, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Code, &o.CustomerID, &o.IsAnonymous, &o.Total, &o.Status,
		&o.DeliveryType, &o.PickupDate, &o.PickupTime, &o.DeliveryDate, &o.DeliveryTime,
		&o.DeliveryAddress, &o.Notes, &o.SpecialInstructions, &o.PaymentMethod,
		&o.IsPaid, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (q *Queries) collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetNextOrderNumber returns MAX+1 over the numeric suffix of existing order
// codes. Concurrent transactions can race to the same number; callers retry
// on the resulting unique violation.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	var next int32
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(code FROM 5) AS INTEGER)), 0) + 1
		FROM orders
		WHERE code ~ '^LAV-[0-9]+$'`).Scan(&next)
	return next, err
}

type CreateOrderParams struct {
	Code                string
	CustomerID          pgtype.UUID
	IsAnonymous         bool
	Total               pgtype.Numeric
	Status              string
	DeliveryType        string
	PickupDate          pgtype.Date
	PickupTime          string
	DeliveryDate        pgtype.Date
	DeliveryTime        string
	DeliveryAddress     pgtype.Text
	Notes               pgtype.Text
	SpecialInstructions pgtype.Text
	PaymentMethod       pgtype.Text
	IsPaid              bool
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		INSERT INTO orders (code, customer_id, is_anonymous, total, status, delivery_type,
			pickup_date, pickup_time, delivery_date, delivery_time, delivery_address,
			notes, special_instructions, payment_method, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+orderColumns,
		arg.Code, arg.CustomerID, arg.IsAnonymous, arg.Total, arg.Status, arg.DeliveryType,
		arg.PickupDate, arg.PickupTime, arg.DeliveryDate, arg.DeliveryTime, arg.DeliveryAddress,
		arg.Notes, arg.SpecialInstructions, arg.PaymentMethod, arg.IsPaid))
}

type UpdateOrderParams struct {
	ID                  uuid.UUID
	Total               pgtype.Numeric
	Status              string
	DeliveryType        string
	PickupDate          pgtype.Date
	PickupTime          string
	DeliveryDate        pgtype.Date
	DeliveryTime        string
	DeliveryAddress     pgtype.Text
	Notes               pgtype.Text
	SpecialInstructions pgtype.Text
	PaymentMethod       pgtype.Text
	IsPaid              bool
}

// UpdateOrder writes the full set of mutable order columns. The service
// layer merges partial input with the stored row before calling this.
func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		UPDATE orders
		SET total = $2, status = $3, delivery_type = $4,
			pickup_date = $5, pickup_time = $6, delivery_date = $7, delivery_time = $8,
			delivery_address = $9, notes = $10, special_instructions = $11,
			payment_method = $12, is_paid = $13, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.Total, arg.Status, arg.DeliveryType,
		arg.PickupDate, arg.PickupTime, arg.DeliveryDate, arg.DeliveryTime,
		arg.DeliveryAddress, arg.Notes, arg.SpecialInstructions,
		arg.PaymentMethod, arg.IsPaid))
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	PrevStatus string
}

// UpdateOrderStatus sets the status only if the row still carries PrevStatus,
// so a concurrent transition surfaces as ErrNoRows instead of silently
// overwriting.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.PrevStatus))
}

// DeleteOrder removes an order unless it is already finalized. Items and
// history go with it via ON DELETE CASCADE. ErrNoRows means the order is
// missing or finalized; callers fetch to distinguish.
func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		DELETE FROM orders
		WHERE id = $1 AND status NOT IN ('DELIVERED', 'CANCELLED')
		RETURNING `+orderColumns, id))
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

type ListOrdersParams struct {
	Status    pgtype.Text
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Search    pgtype.Text
	Limit     int32
	Offset    int32
}

// ListOrders returns orders newest first. The date range matches orders whose
// pickup OR delivery date falls inside [StartDate, EndDate]; Search matches
// the order code as a substring.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		AND ($2::date IS NULL OR $3::date IS NULL
			OR (pickup_date BETWEEN $2 AND $3)
			OR (delivery_date BETWEEN $2 AND $3))
		AND ($4::text IS NULL OR code ILIKE '%' || $4 || '%')
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		arg.Status, arg.StartDate, arg.EndDate, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return q.collectOrders(rows)
}

type OrderStatusCount struct {
	Status string
	Count  int64
}

// CountOrdersByStatus returns the number of orders per status, every status
// included with a zero count when absent.
func (q *Queries) CountOrdersByStatus(ctx context.Context) ([]OrderStatusCount, error) {
	rows, err := q.db.Query(ctx, `
		SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []OrderStatusCount
	for rows.Next() {
		var c OrderStatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type ListOrdersByCustomerParams struct {
	CustomerID uuid.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrdersByCustomer(ctx context.Context, arg ListOrdersByCustomerParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return q.collectOrders(rows)
}

// ListOrdersByCustomerIDs returns all orders belonging to any of the given
// customers, newest first. Used by the phone-based tracking lookup.
func (q *Queries) ListOrdersByCustomerIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = ANY($1)
		ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	return q.collectOrders(rows)
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	PieceID   uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, piece_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_id, piece_id, quantity, unit_price, subtotal`,
		arg.OrderID, arg.PieceID, arg.Quantity, arg.UnitPrice, arg.Subtotal).
		Scan(&it.ID, &it.OrderID, &it.PieceID, &it.Quantity, &it.UnitPrice, &it.Subtotal)
	return it, err
}

// DeleteOrderItemsByOrder clears an order's item list ahead of a wholesale
// replacement.
func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

// ListOrderItemsByOrderIDs fetches the items of a batch of orders in one
// round-trip, joined with pieces for the name snapshot.
func (q *Queries) ListOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]OrderItemWithPiece, error) {
	rows, err := q.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.piece_id, oi.quantity, oi.unit_price, oi.subtotal,
			p.name, p.unit_type
		FROM order_items oi
		JOIN pieces p ON p.id = oi.piece_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItemWithPiece
	for rows.Next() {
		var it OrderItemWithPiece
		if err := rows.Scan(&it.ID, &it.OrderID, &it.PieceID, &it.Quantity,
			&it.UnitPrice, &it.Subtotal, &it.PieceName, &it.PieceUnitType); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type CreateOrderHistoryParams struct {
	OrderID     uuid.UUID
	Action      string
	Description string
}

func (q *Queries) CreateOrderHistory(ctx context.Context, arg CreateOrderHistoryParams) (OrderHistory, error) {
	var h OrderHistory
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_history (order_id, action, description)
		VALUES ($1, $2, $3)
		RETURNING id, order_id, action, description, created_at`,
		arg.OrderID, arg.Action, arg.Description).
		Scan(&h.ID, &h.OrderID, &h.Action, &h.Description, &h.CreatedAt)
	return h, err
}

// ListOrderHistoryByOrderIDs fetches the history of a batch of orders in one
// round-trip, oldest entries first.
func (q *Queries) ListOrderHistoryByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]OrderHistory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, action, description, created_at
		FROM order_history
		WHERE order_id = ANY($1)
		ORDER BY created_at ASC`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []OrderHistory
	for rows.Next() {
		var h OrderHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Action, &h.Description, &h.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}
