package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/service"
)

// CustomerStore defines the database methods needed by customer handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CustomerStore interface {
	ListCustomers(ctx context.Context, arg database.ListCustomersParams) ([]database.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	UpdateCustomer(ctx context.Context, arg database.UpdateCustomerParams) (database.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// CustomerOrderLister lists a customer's orders; implemented by the order
// service so the rows come back hydrated.
type CustomerOrderLister interface {
	ListOrdersByCustomer(ctx context.Context, arg database.ListOrdersByCustomerParams) ([]service.OrderDetail, error)
}

// CustomerHandler handles customer CRUD endpoints.
type CustomerHandler struct {
	store  CustomerStore
	orders CustomerOrderLister
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore, orders CustomerOrderLister) *CustomerHandler {
	return &CustomerHandler{store: store, orders: orders}
}

// RegisterRoutes registers customer CRUD endpoints on the given Chi router.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/orders", h.Orders)
	})
}

// --- Request / Response types ---

type createCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type updateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type customerResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCustomerResponse(c database.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     textPtr(c.Email),
		Address:   textPtr(c.Address),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// --- Handlers ---

// List returns customers, newest first, with optional search over name, code,
// and phone.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var search pgtype.Text
	if s := r.URL.Query().Get("search"); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	customers, err := h.store.ListCustomers(r.Context(), database.ListCustomersParams{
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Error().Err(err).Msg("list customers")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toCustomerResponse(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single customer by ID.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer ID")
		return
	}

	customer, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		log.Error().Err(err).Msg("get customer")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// Create registers a new customer with a generated lookup code.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	customer, err := service.CreateCustomer(r.Context(), h.store, req.Name, req.Phone, req.Email, req.Address)
	if err != nil {
		log.Error().Err(err).Msg("create customer")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

// Update modifies an existing customer. The code is immutable.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer ID")
		return
	}

	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	var email, address pgtype.Text
	if req.Email != "" {
		email = pgtype.Text{String: req.Email, Valid: true}
	}
	if req.Address != "" {
		address = pgtype.Text{String: req.Address, Valid: true}
	}

	customer, err := h.store.UpdateCustomer(r.Context(), database.UpdateCustomerParams{
		ID:      id,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   email,
		Address: address,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		log.Error().Err(err).Msg("update customer")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// Delete removes a customer. Customers with orders cannot be deleted.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer ID")
		return
	}

	if _, err := h.store.DeleteCustomer(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeError(w, http.StatusConflict, "customer has orders and cannot be deleted")
			return
		}
		log.Error().Err(err).Msg("delete customer")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Orders returns the customer's order history, newest first.
func (h *CustomerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer ID")
		return
	}
	limit, offset := parsePagination(r)

	if _, err := h.store.GetCustomer(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		log.Error().Err(err).Msg("get customer")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	details, err := h.orders.ListOrdersByCustomer(r.Context(), database.ListOrdersByCustomerParams{
		CustomerID: id,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		log.Error().Err(err).Msg("list customer orders")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]orderResponse, len(details))
	for i, d := range details {
		resp[i] = toOrderResponse(d, true)
	}
	writeJSON(w, http.StatusOK, resp)
}
