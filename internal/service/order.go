package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/enum"
)

const (
	maxOrderNumberRetries = 3

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidPieceID       = errors.New("invalid piece_id")
	ErrPieceNotFound        = errors.New("piece not found")
	ErrInvalidCustomerID    = errors.New("invalid customer_id")
	ErrCustomerRequired     = errors.New("customer_id is required for non-anonymous orders")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrInvalidDeliveryType  = errors.New("invalid delivery_type")
	ErrDeliveryAddress      = errors.New("delivery_address is required for DELIVERY orders")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTime          = errors.New("invalid time, expected HH:MM")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderFinalized       = errors.New("order is already delivered or cancelled")
	ErrConcurrentUpdate     = errors.New("order was modified concurrently")
)

// allowedTransitions is the order state machine. Terminal statuses have no
// outgoing edges; cancellation is reachable from every active status.
var allowedTransitions = map[string][]string{
	enum.OrderStatusReceived:  {enum.OrderStatusWashing, enum.OrderStatusCancelled},
	enum.OrderStatusWashing:   {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusDelivered, enum.OrderStatusCancelled},
	enum.OrderStatusDelivered: {},
	enum.OrderStatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int32, error)
	GetPieceForOrder(ctx context.Context, id uuid.UUID) (database.GetPieceForOrderRow, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	ListCustomerIDsByPhone(ctx context.Context, phone string) ([]uuid.UUID, error)
	ListCustomersByIDs(ctx context.Context, ids []uuid.UUID) ([]database.Customer, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrdersByCustomer(ctx context.Context, arg database.ListOrdersByCustomerParams) ([]database.Order, error)
	ListOrdersByCustomerIDs(ctx context.Context, ids []uuid.UUID) ([]database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error
	ListOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]database.OrderItemWithPiece, error)
	CreateOrderHistory(ctx context.Context, arg database.CreateOrderHistoryParams) (database.OrderHistory, error)
	ListOrderHistoryByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]database.OrderHistory, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderItemRequest is a single line in an order.
type OrderItemRequest struct {
	PieceID  string
	Quantity int32
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	CustomerID          string
	IsAnonymous         bool
	DeliveryType        string
	PickupDate          string // YYYY-MM-DD
	PickupTime          string // HH:MM
	DeliveryDate        string
	DeliveryTime        string
	DeliveryAddress     string
	Notes               string
	SpecialInstructions string
	PaymentMethod       string
	IsPaid              bool
	Items               []OrderItemRequest
}

// UpdateOrderRequest carries a partial update; nil fields are left unchanged.
// A non-nil Items slice replaces the full item list.
type UpdateOrderRequest struct {
	DeliveryType        *string
	PickupDate          *string
	PickupTime          *string
	DeliveryDate        *string
	DeliveryTime        *string
	DeliveryAddress     *string
	Notes               *string
	SpecialInstructions *string
	PaymentMethod       *string
	IsPaid              *bool
	Items               []OrderItemRequest
}

// OrderDetail is an order with its items, history, and customer hydrated.
type OrderDetail struct {
	Order    database.Order
	Customer *database.Customer
	Items    []database.OrderItemWithPiece
	History  []database.OrderHistory
}

// OrderService handles the order lifecycle.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store runs reads outside
// transactions; newStore builds transactional stores for writes.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// pricedItem is an item with its price snapshot resolved.
type pricedItem struct {
	pieceID   uuid.UUID
	quantity  int32
	unitPrice decimal.Decimal
	subtotal  decimal.Decimal
}

// CreateOrder validates, snapshots piece prices, and creates an order with its
// items and the CREATED history entry in one transaction. Retries up to
// maxOrderNumberRetries times on code unique violations (concurrent
// transactions can race to the same MAX+1).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if !enum.IsValidDeliveryType(req.DeliveryType) {
		return nil, ErrInvalidDeliveryType
	}
	if req.DeliveryType == enum.DeliveryTypeDelivery && req.DeliveryAddress == "" {
		return nil, ErrDeliveryAddress
	}
	if !req.IsAnonymous && req.CustomerID == "" {
		return nil, ErrCustomerRequired
	}
	if req.PaymentMethod != "" && !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	pickupDate, err := parseDate(req.PickupDate)
	if err != nil {
		return nil, err
	}
	deliveryDate, err := parseDate(req.DeliveryDate)
	if err != nil {
		return nil, err
	}
	if err := validateTime(req.PickupTime); err != nil {
		return nil, err
	}
	if err := validateTime(req.DeliveryTime); err != nil {
		return nil, err
	}

	customerID := pgtype.UUID{}
	if !req.IsAnonymous {
		cid, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, ErrInvalidCustomerID
		}
		customerID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	// Retry loop: handles the order code unique constraint race.
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req, customerID, pickupDate, deliveryDate)
		if err == nil {
			return result, nil
		}
		if isOrderCodeConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderCodeConflict checks if the error is a unique constraint violation on
// the order code (pgconn error code 23505).
func isOrderCodeConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_code_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, customerID pgtype.UUID, pickupDate, deliveryDate pgtype.Date) (*OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if customerID.Valid {
		if _, err := store.GetCustomer(ctx, customerID.Bytes); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrCustomerNotFound
			}
			return nil, fmt.Errorf("get customer: %w", err)
		}
	}

	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	code := fmt.Sprintf("LAV-%04d", nextNum)

	priced, total, err := s.priceItems(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		Code:                code,
		CustomerID:          customerID,
		IsAnonymous:         req.IsAnonymous,
		Total:               decimalToNumeric(total),
		Status:              enum.OrderStatusReceived,
		DeliveryType:        req.DeliveryType,
		PickupDate:          pickupDate,
		PickupTime:          req.PickupTime,
		DeliveryDate:        deliveryDate,
		DeliveryTime:        req.DeliveryTime,
		DeliveryAddress:     textOrNull(req.DeliveryAddress),
		Notes:               textOrNull(req.Notes),
		SpecialInstructions: textOrNull(req.SpecialInstructions),
		PaymentMethod:       textOrNull(req.PaymentMethod),
		IsPaid:              req.IsPaid,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for _, pi := range priced {
		if _, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			PieceID:   pi.pieceID,
			Quantity:  pi.quantity,
			UnitPrice: decimalToNumeric(pi.unitPrice),
			Subtotal:  decimalToNumeric(pi.subtotal),
		}); err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	}

	if _, err := store.CreateOrderHistory(ctx, database.CreateOrderHistoryParams{
		OrderID:     order.ID,
		Action:      enum.HistoryActionCreated,
		Description: "Pedido criado",
	}); err != nil {
		return nil, fmt.Errorf("create order history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetOrder(ctx, order.ID)
}

// priceItems validates items and snapshots current piece prices. subtotal =
// unit_price * quantity; the order total is the sum of subtotals.
func (s *OrderService) priceItems(ctx context.Context, store OrderStore, items []OrderItemRequest) ([]pricedItem, decimal.Decimal, error) {
	total := decimal.Zero
	var priced []pricedItem
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		pieceID, err := uuid.Parse(item.PieceID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidPieceID)
		}
		piece, err := store.GetPieceForOrder(ctx, pieceID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrPieceNotFound)
			}
			return nil, decimal.Zero, fmt.Errorf("item[%d]: get piece: %w", i, err)
		}

		unitPrice := numericToDecimal(piece.Price)
		subtotal := unitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		total = total.Add(subtotal)
		priced = append(priced, pricedItem{
			pieceID:   pieceID,
			quantity:  item.Quantity,
			unitPrice: unitPrice,
			subtotal:  subtotal,
		})
	}
	return priced, total, nil
}

// UpdateStatus moves an order along the state machine and records the
// transition in its history. Setting the current status again is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*OrderDetail, error) {
	if !enum.IsValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if order.Status == status {
		return s.GetOrder(ctx, id)
	}
	if !CanTransition(order.Status, status) {
		return nil, ErrInvalidTransition
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         id,
		Status:     status,
		PrevStatus: order.Status,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if _, err := store.CreateOrderHistory(ctx, database.CreateOrderHistoryParams{
		OrderID:     id,
		Action:      enum.HistoryActionStatusChanged,
		Description: "Status alterado para " + enum.OrderStatusLabels[status],
	}); err != nil {
		return nil, fmt.Errorf("create order history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetOrder(ctx, id)
}

// UpdateOrder applies a partial update to a non-finalized order, replacing the
// item list when one is provided, and records one history entry per changed
// category.
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*OrderDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if enum.IsTerminalOrderStatus(order.Status) {
		return nil, ErrOrderFinalized
	}

	params := database.UpdateOrderParams{
		ID:                  order.ID,
		Total:               order.Total,
		Status:              order.Status,
		DeliveryType:        order.DeliveryType,
		PickupDate:          pgtype.Date{Time: order.PickupDate, Valid: true},
		PickupTime:          order.PickupTime,
		DeliveryDate:        pgtype.Date{Time: order.DeliveryDate, Valid: true},
		DeliveryTime:        order.DeliveryTime,
		DeliveryAddress:     order.DeliveryAddress,
		Notes:               order.Notes,
		SpecialInstructions: order.SpecialInstructions,
		PaymentMethod:       order.PaymentMethod,
		IsPaid:              order.IsPaid,
	}

	deliveryChanged := false
	if req.DeliveryType != nil {
		if !enum.IsValidDeliveryType(*req.DeliveryType) {
			return nil, ErrInvalidDeliveryType
		}
		params.DeliveryType = *req.DeliveryType
		deliveryChanged = true
	}
	if req.PickupDate != nil {
		d, err := parseDate(*req.PickupDate)
		if err != nil {
			return nil, err
		}
		params.PickupDate = d
		deliveryChanged = true
	}
	if req.PickupTime != nil {
		if err := validateTime(*req.PickupTime); err != nil {
			return nil, err
		}
		params.PickupTime = *req.PickupTime
		deliveryChanged = true
	}
	if req.DeliveryDate != nil {
		d, err := parseDate(*req.DeliveryDate)
		if err != nil {
			return nil, err
		}
		params.DeliveryDate = d
		deliveryChanged = true
	}
	if req.DeliveryTime != nil {
		if err := validateTime(*req.DeliveryTime); err != nil {
			return nil, err
		}
		params.DeliveryTime = *req.DeliveryTime
		deliveryChanged = true
	}
	if req.DeliveryAddress != nil {
		params.DeliveryAddress = textOrNull(*req.DeliveryAddress)
		deliveryChanged = true
	}
	if req.Notes != nil {
		params.Notes = textOrNull(*req.Notes)
	}
	if req.SpecialInstructions != nil {
		params.SpecialInstructions = textOrNull(*req.SpecialInstructions)
	}

	if params.DeliveryType == enum.DeliveryTypeDelivery && !params.DeliveryAddress.Valid {
		return nil, ErrDeliveryAddress
	}

	paymentChanged := false
	if req.PaymentMethod != nil {
		if *req.PaymentMethod != "" && !enum.IsValidPaymentMethod(*req.PaymentMethod) {
			return nil, ErrInvalidPaymentMethod
		}
		params.PaymentMethod = textOrNull(*req.PaymentMethod)
	}
	if req.IsPaid != nil && *req.IsPaid != order.IsPaid {
		params.IsPaid = *req.IsPaid
		paymentChanged = true
	}

	itemsChanged := req.Items != nil
	if itemsChanged {
		if len(req.Items) == 0 {
			return nil, ErrEmptyItems
		}
		priced, total, err := s.priceItems(ctx, store, req.Items)
		if err != nil {
			return nil, err
		}
		if err := store.DeleteOrderItemsByOrder(ctx, order.ID); err != nil {
			return nil, fmt.Errorf("delete order items: %w", err)
		}
		for _, pi := range priced {
			if _, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
				OrderID:   order.ID,
				PieceID:   pi.pieceID,
				Quantity:  pi.quantity,
				UnitPrice: decimalToNumeric(pi.unitPrice),
				Subtotal:  decimalToNumeric(pi.subtotal),
			}); err != nil {
				return nil, fmt.Errorf("create order item: %w", err)
			}
		}
		params.Total = decimalToNumeric(total)
	}

	if _, err := store.UpdateOrder(ctx, params); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if itemsChanged {
		if _, err := store.CreateOrderHistory(ctx, database.CreateOrderHistoryParams{
			OrderID:     order.ID,
			Action:      enum.HistoryActionItemsUpdated,
			Description: "Itens do pedido atualizados",
		}); err != nil {
			return nil, fmt.Errorf("create order history: %w", err)
		}
	}
	if deliveryChanged {
		if _, err := store.CreateOrderHistory(ctx, database.CreateOrderHistoryParams{
			OrderID:     order.ID,
			Action:      enum.HistoryActionDeliveryUpdated,
			Description: "Informações de entrega atualizadas",
		}); err != nil {
			return nil, fmt.Errorf("create order history: %w", err)
		}
	}
	if paymentChanged {
		desc := "Pagamento recebido"
		if !params.IsPaid {
			desc = "Pagamento marcado como não recebido"
		}
		if _, err := store.CreateOrderHistory(ctx, database.CreateOrderHistoryParams{
			OrderID:     order.ID,
			Action:      enum.HistoryActionPaymentStatusChanged,
			Description: desc,
		}); err != nil {
			return nil, fmt.Errorf("create order history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetOrder(ctx, id)
}

// DeleteOrder removes a non-finalized order with its items and history.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	order, err := s.store.DeleteOrder(ctx, id)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("delete order: %w", err)
	}

	// Distinguish missing from finalized.
	if _, err := s.store.GetOrder(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	return database.Order{}, ErrOrderFinalized
}

// GetOrder fetches one order with items, history, and customer.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetail, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	details, err := s.hydrate(ctx, []database.Order{order})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// ListOrders returns hydrated orders matching the filter.
func (s *OrderService) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]OrderDetail, error) {
	orders, err := s.store.ListOrders(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return s.hydrate(ctx, orders)
}

// ListOrdersByCustomer returns a customer's hydrated orders, newest first.
func (s *OrderService) ListOrdersByCustomer(ctx context.Context, arg database.ListOrdersByCustomerParams) ([]OrderDetail, error) {
	orders, err := s.store.ListOrdersByCustomer(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list orders by customer: %w", err)
	}
	return s.hydrate(ctx, orders)
}

// TrackByPhone returns the orders of every customer whose phone matches the
// given digits. Backs the public tracking page, so it takes no claims.
func (s *OrderService) TrackByPhone(ctx context.Context, phone string) ([]OrderDetail, error) {
	ids, err := s.store.ListCustomerIDsByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup customers by phone: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	orders, err := s.store.ListOrdersByCustomerIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list orders by customers: %w", err)
	}
	return s.hydrate(ctx, orders)
}

// hydrate attaches items, history, and customers to a batch of orders using
// one round-trip per relation.
func (s *OrderService) hydrate(ctx context.Context, orders []database.Order) ([]OrderDetail, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	var customerIDs []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		if o.CustomerID.Valid && !seen[o.CustomerID.Bytes] {
			seen[o.CustomerID.Bytes] = true
			customerIDs = append(customerIDs, o.CustomerID.Bytes)
		}
	}

	items, err := s.store.ListOrderItemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	history, err := s.store.ListOrderHistoryByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}

	customersByID := map[uuid.UUID]database.Customer{}
	if len(customerIDs) > 0 {
		customers, err := s.store.ListCustomersByIDs(ctx, customerIDs)
		if err != nil {
			return nil, fmt.Errorf("list customers: %w", err)
		}
		for _, c := range customers {
			customersByID[c.ID] = c
		}
	}

	itemsByOrder := map[uuid.UUID][]database.OrderItemWithPiece{}
	for _, it := range items {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}
	historyByOrder := map[uuid.UUID][]database.OrderHistory{}
	for _, h := range history {
		historyByOrder[h.OrderID] = append(historyByOrder[h.OrderID], h)
	}

	details := make([]OrderDetail, 0, len(orders))
	for _, o := range orders {
		d := OrderDetail{
			Order:   o,
			Items:   itemsByOrder[o.ID],
			History: historyByOrder[o.ID],
		}
		if o.CustomerID.Valid {
			if c, ok := customersByID[o.CustomerID.Bytes]; ok {
				d.Customer = &c
			}
		}
		details = append(details, d)
	}
	return details, nil
}

// --- Helpers ---

func parseDate(s string) (pgtype.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return pgtype.Date{}, ErrInvalidDate
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func validateTime(s string) error {
	if _, err := time.Parse(timeLayout, s); err != nil {
		return ErrInvalidTime
	}
	return nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
