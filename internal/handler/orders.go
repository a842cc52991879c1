package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/lavapp/api/internal/auth"
	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/enum"
	"github.com/lavapp/api/internal/middleware"
	"github.com/lavapp/api/internal/notify"
	"github.com/lavapp/api/internal/service"
	"github.com/lavapp/api/internal/ws"
)

// OrderService is the service surface order handlers call.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderService interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req service.UpdateOrderRequest) (*service.OrderDetail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*service.OrderDetail, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]service.OrderDetail, error)
}

// Broadcaster pushes order events to connected clients.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// OrderHandler handles the order lifecycle endpoints.
type OrderHandler struct {
	svc      OrderService
	hub      Broadcaster
	whatsapp *notify.WhatsApp
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderService, hub Broadcaster, whatsapp *notify.WhatsApp) *OrderHandler {
	return &OrderHandler{svc: svc, hub: hub, whatsapp: whatsapp}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Patch("/status", h.UpdateStatus)
		r.Get("/whatsapp", h.WhatsAppLink)
	})
}

// --- Request / Response types ---

type orderItemPayload struct {
	PieceID  string `json:"piece_id"`
	Quantity int32  `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID          string             `json:"customer_id"`
	IsAnonymous         bool               `json:"is_anonymous"`
	DeliveryType        string             `json:"delivery_type"`
	PickupDate          string             `json:"pickup_date"`
	PickupTime          string             `json:"pickup_time"`
	DeliveryDate        string             `json:"delivery_date"`
	DeliveryTime        string             `json:"delivery_time"`
	DeliveryAddress     string             `json:"delivery_address"`
	Notes               string             `json:"notes"`
	SpecialInstructions string             `json:"special_instructions"`
	PaymentMethod       string             `json:"payment_method"`
	IsPaid              bool               `json:"is_paid"`
	Items               []orderItemPayload `json:"items"`
}

type updateOrderRequest struct {
	DeliveryType        *string            `json:"delivery_type"`
	PickupDate          *string            `json:"pickup_date"`
	PickupTime          *string            `json:"pickup_time"`
	DeliveryDate        *string            `json:"delivery_date"`
	DeliveryTime        *string            `json:"delivery_time"`
	DeliveryAddress     *string            `json:"delivery_address"`
	Notes               *string            `json:"notes"`
	SpecialInstructions *string            `json:"special_instructions"`
	PaymentMethod       *string            `json:"payment_method"`
	IsPaid              *bool              `json:"is_paid"`
	Items               []orderItemPayload `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	PieceID   uuid.UUID `json:"piece_id"`
	PieceName string    `json:"piece_name"`
	UnitType  string    `json:"unit_type"`
	Quantity  int32     `json:"quantity"`
	UnitPrice *string   `json:"unit_price,omitempty"`
	Subtotal  *string   `json:"subtotal,omitempty"`
}

type orderHistoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type orderResponse struct {
	ID                  uuid.UUID              `json:"id"`
	Code                string                 `json:"code"`
	Customer            *customerResponse      `json:"customer"`
	IsAnonymous         bool                   `json:"is_anonymous"`
	Total               *string                `json:"total,omitempty"`
	Status              string                 `json:"status"`
	StatusLabel         string                 `json:"status_label"`
	DeliveryType        string                 `json:"delivery_type"`
	PickupDate          string                 `json:"pickup_date"`
	PickupTime          string                 `json:"pickup_time"`
	DeliveryDate        string                 `json:"delivery_date"`
	DeliveryTime        string                 `json:"delivery_time"`
	DeliveryAddress     *string                `json:"delivery_address"`
	Notes               *string                `json:"notes"`
	SpecialInstructions *string                `json:"special_instructions"`
	PaymentMethod       *string                `json:"payment_method"`
	IsPaid              bool                   `json:"is_paid"`
	Items               []orderItemResponse    `json:"items"`
	History             []orderHistoryResponse `json:"history"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// toOrderResponse serializes an order. Monetary fields are omitted when the
// caller's role may not see prices.
func toOrderResponse(d service.OrderDetail, viewPrices bool) orderResponse {
	resp := orderResponse{
		ID:                  d.Order.ID,
		Code:                d.Order.Code,
		IsAnonymous:         d.Order.IsAnonymous,
		Status:              d.Order.Status,
		StatusLabel:         enum.OrderStatusLabels[d.Order.Status],
		DeliveryType:        d.Order.DeliveryType,
		PickupDate:          d.Order.PickupDate.Format("2006-01-02"),
		PickupTime:          d.Order.PickupTime,
		DeliveryDate:        d.Order.DeliveryDate.Format("2006-01-02"),
		DeliveryTime:        d.Order.DeliveryTime,
		DeliveryAddress:     textPtr(d.Order.DeliveryAddress),
		Notes:               textPtr(d.Order.Notes),
		SpecialInstructions: textPtr(d.Order.SpecialInstructions),
		PaymentMethod:       textPtr(d.Order.PaymentMethod),
		IsPaid:              d.Order.IsPaid,
		CreatedAt:           d.Order.CreatedAt,
		UpdatedAt:           d.Order.UpdatedAt,
	}
	if viewPrices {
		total := numericToString(d.Order.Total)
		resp.Total = &total
	}
	if d.Customer != nil {
		c := toCustomerResponse(*d.Customer)
		resp.Customer = &c
	}
	resp.Items = make([]orderItemResponse, len(d.Items))
	for i, item := range d.Items {
		ir := orderItemResponse{
			ID:        item.ID,
			PieceID:   item.PieceID,
			PieceName: item.PieceName,
			UnitType:  item.PieceUnitType,
			Quantity:  item.Quantity,
		}
		if viewPrices {
			unitPrice := numericToString(item.UnitPrice)
			subtotal := numericToString(item.Subtotal)
			ir.UnitPrice = &unitPrice
			ir.Subtotal = &subtotal
		}
		resp.Items[i] = ir
	}
	resp.History = make([]orderHistoryResponse, len(d.History))
	for i, entry := range d.History {
		resp.History[i] = orderHistoryResponse{
			ID:          entry.ID,
			Action:      entry.Action,
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt,
		}
	}
	return resp
}

// canViewPrices resolves price visibility from the request's claims. Requests
// without claims come from internal paths and see everything.
func canViewPrices(r *http.Request) bool {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return true
	}
	return auth.CanViewPrices(claims.Role)
}

// writeServiceError maps order service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCustomerNotFound), errors.Is(err, service.ErrPieceNotFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrOrderFinalized):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPieceID),
		errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrCustomerRequired),
		errors.Is(err, service.ErrInvalidDeliveryType),
		errors.Is(err, service.ErrDeliveryAddress),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidTime),
		errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("order service")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// --- Handlers ---

// List returns orders matching the optional status, date range, and code
// search filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	params := database.ListOrdersParams{Limit: limit, Offset: offset}
	if s := r.URL.Query().Get("status"); s != "" {
		if !enum.IsValidOrderStatus(s) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("search"); s != "" {
		params.Search = pgtype.Text{String: s, Valid: true}
	}
	startStr, endStr := r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date")
	if startStr != "" && endStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		params.StartDate = pgtype.Date{Time: start, Valid: true}
		params.EndDate = pgtype.Date{Time: end, Valid: true}
	}

	details, err := h.svc.ListOrders(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("list orders")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	viewPrices := canViewPrices(r)
	resp := make([]orderResponse, len(details))
	for i, d := range details {
		resp[i] = toOrderResponse(d, viewPrices)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single order with items and history.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*detail, canViewPrices(r)))
}

// Create registers a new order in RECEIVED status.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerID:          req.CustomerID,
		IsAnonymous:         req.IsAnonymous,
		DeliveryType:        req.DeliveryType,
		PickupDate:          req.PickupDate,
		PickupTime:          req.PickupTime,
		DeliveryDate:        req.DeliveryDate,
		DeliveryTime:        req.DeliveryTime,
		DeliveryAddress:     req.DeliveryAddress,
		Notes:               req.Notes,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       req.PaymentMethod,
		IsPaid:              req.IsPaid,
		Items:               toServiceItems(req.Items),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := toOrderResponse(*detail, true)
	h.hub.Broadcast(ws.EventOrderCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// Update applies a partial update to a non-finalized order.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svcReq := service.UpdateOrderRequest{
		DeliveryType:        req.DeliveryType,
		PickupDate:          req.PickupDate,
		PickupTime:          req.PickupTime,
		DeliveryDate:        req.DeliveryDate,
		DeliveryTime:        req.DeliveryTime,
		DeliveryAddress:     req.DeliveryAddress,
		Notes:               req.Notes,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       req.PaymentMethod,
		IsPaid:              req.IsPaid,
	}
	if req.Items != nil {
		svcReq.Items = toServiceItems(req.Items)
	}

	detail, err := h.svc.UpdateOrder(r.Context(), id, svcReq)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := toOrderResponse(*detail, true)
	h.hub.Broadcast(ws.EventOrderUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an order along the state machine.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := toOrderResponse(*detail, true)
	h.hub.Broadcast(ws.EventOrderStatusChanged, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a non-finalized order.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.svc.DeleteOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(ws.EventOrderDeleted, map[string]string{
		"id":   order.ID.String(),
		"code": order.Code,
	})
	w.WriteHeader(http.StatusNoContent)
}

// WhatsAppLink returns a wa.me deep link with a pre-filled message for the
// order: type=created for the confirmation, type=ready for pickup notice.
func (h *OrderHandler) WhatsAppLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var link string
	switch r.URL.Query().Get("type") {
	case "created":
		link = h.whatsapp.OrderCreatedLink(*detail)
	case "ready":
		link = h.whatsapp.OrderReadyLink(*detail)
	default:
		writeError(w, http.StatusBadRequest, "type must be created or ready")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}

func toServiceItems(items []orderItemPayload) []service.OrderItemRequest {
	out := make([]service.OrderItemRequest, len(items))
	for i, item := range items {
		out[i] = service.OrderItemRequest{PieceID: item.PieceID, Quantity: item.Quantity}
	}
	return out
}
