package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/service"
	"github.com/lavapp/api/internal/wizard"
	"github.com/lavapp/api/internal/ws"
)

// WizardStore defines the lookups the wizard needs while assembling a draft.
// Satisfied by *database.Queries.
type WizardStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	GetPiece(ctx context.Context, id uuid.UUID) (database.Piece, error)
}

// WizardHandler drives the four-step order creation flow. Drafts live in
// memory; submitting one creates the order through the order service.
type WizardHandler struct {
	drafts *wizard.Store
	store  WizardStore
	svc    OrderService
	hub    Broadcaster
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(drafts *wizard.Store, store WizardStore, svc OrderService, hub Broadcaster) *WizardHandler {
	return &WizardHandler{drafts: drafts, store: store, svc: svc, hub: hub}
}

// RegisterRoutes registers wizard endpoints on the given Chi router.
func (h *WizardHandler) RegisterRoutes(r chi.Router) {
	r.Post("/drafts", h.CreateDraft)
	r.Route("/drafts/{id}", func(r chi.Router) {
		r.Get("/", h.GetDraft)
		r.Delete("/", h.DeleteDraft)
		r.Put("/customer", h.SetCustomer)
		r.Post("/items", h.AddItem)
		r.Put("/items/{pieceID}", h.SetItemQuantity)
		r.Delete("/items/{pieceID}", h.RemoveItem)
		r.Put("/delivery", h.SetDelivery)
		r.Post("/advance", h.Advance)
		r.Post("/back", h.Back)
		r.Post("/submit", h.Submit)
	})
}

// --- Request / Response types ---

type setCustomerRequest struct {
	CustomerID  string `json:"customer_id"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type addItemRequest struct {
	PieceID string `json:"piece_id"`
}

type setQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type setDeliveryRequest struct {
	DeliveryType        *string `json:"delivery_type"`
	PickupDate          *string `json:"pickup_date"`
	PickupTime          *string `json:"pickup_time"`
	DeliveryDate        *string `json:"delivery_date"`
	DeliveryTime        *string `json:"delivery_time"`
	DeliveryAddress     *string `json:"delivery_address"`
	Notes               *string `json:"notes"`
	SpecialInstructions *string `json:"special_instructions"`
}

type draftItemResponse struct {
	PieceID  uuid.UUID `json:"piece_id"`
	Name     string    `json:"name"`
	UnitType string    `json:"unit_type"`
	Price    string    `json:"price"`
	Quantity int32     `json:"quantity"`
	Subtotal string    `json:"subtotal"`
}

type draftResponse struct {
	ID                  uuid.UUID           `json:"id"`
	CurrentStep         int                 `json:"current_step"`
	CanProceed          bool                `json:"can_proceed"`
	Customer            *customerResponse   `json:"customer"`
	IsAnonymous         bool                `json:"is_anonymous"`
	Items               []draftItemResponse `json:"items"`
	Total               string              `json:"total"`
	DeliveryType        string              `json:"delivery_type"`
	PickupDate          string              `json:"pickup_date"`
	PickupTime          string              `json:"pickup_time"`
	DeliveryDate        string              `json:"delivery_date"`
	DeliveryTime        string              `json:"delivery_time"`
	DeliveryAddress     string              `json:"delivery_address"`
	Notes               string              `json:"notes"`
	SpecialInstructions string              `json:"special_instructions"`
}

func toDraftResponse(d *wizard.Draft) draftResponse {
	resp := draftResponse{
		ID:                  d.ID,
		CurrentStep:         d.CurrentStep,
		CanProceed:          d.CanProceed(),
		IsAnonymous:         d.IsAnonymous,
		Total:               d.Total().StringFixed(2),
		DeliveryType:        d.DeliveryType,
		PickupDate:          d.PickupDate,
		PickupTime:          d.PickupTime,
		DeliveryDate:        d.DeliveryDate,
		DeliveryTime:        d.DeliveryTime,
		DeliveryAddress:     d.DeliveryAddress,
		Notes:               d.Notes,
		SpecialInstructions: d.SpecialInstructions,
	}
	if d.Customer != nil {
		c := toCustomerResponse(*d.Customer)
		resp.Customer = &c
	}
	resp.Items = make([]draftItemResponse, len(d.Items))
	for i, item := range d.Items {
		resp.Items[i] = draftItemResponse{
			PieceID:  item.Piece.ID,
			Name:     item.Piece.Name,
			UnitType: item.Piece.UnitType,
			Price:    numericToString(item.Piece.Price),
			Quantity: item.Quantity,
			Subtotal: item.Subtotal.StringFixed(2),
		}
	}
	return resp
}

// --- Handlers ---

// CreateDraft starts a new empty draft.
func (h *WizardHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	d := h.drafts.Create()
	writeJSON(w, http.StatusCreated, toDraftResponse(d))
}

func (h *WizardHandler) draftFromURL(w http.ResponseWriter, r *http.Request) *wizard.Draft {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft ID")
		return nil
	}
	d, ok := h.drafts.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "draft not found")
		return nil
	}
	return d
}

// GetDraft returns the current draft state.
func (h *WizardHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// DeleteDraft discards a draft.
func (h *WizardHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft ID")
		return
	}
	h.drafts.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// SetCustomer selects the draft's customer or switches it to anonymous.
func (h *WizardHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}

	var req setCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.IsAnonymous {
		d.SetCustomer(nil, true)
		writeJSON(w, http.StatusOK, toDraftResponse(d))
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}
	customer, err := h.store.GetCustomer(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		log.Error().Err(err).Msg("get customer")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	d.SetCustomer(&customer, false)
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// AddItem adds one unit of a piece, merging into an existing line.
func (h *WizardHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pieceID, err := uuid.Parse(req.PieceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid piece_id")
		return
	}

	piece, err := h.store.GetPiece(r.Context(), pieceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "piece not found")
			return
		}
		log.Error().Err(err).Msg("get piece")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	d.AddItem(piece)
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// SetItemQuantity sets a line's quantity; zero removes the line.
func (h *WizardHandler) SetItemQuantity(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}
	pieceID, err := uuid.Parse(chi.URLParam(r, "pieceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid piece ID")
		return
	}

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d.SetItemQuantity(pieceID, req.Quantity)
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// RemoveItem removes a line from the draft.
func (h *WizardHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}
	pieceID, err := uuid.Parse(chi.URLParam(r, "pieceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid piece ID")
		return
	}

	d.RemoveItem(pieceID)
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// SetDelivery updates the draft's scheduling fields.
func (h *WizardHandler) SetDelivery(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}

	var req setDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DeliveryType != nil {
		d.DeliveryType = *req.DeliveryType
	}
	if req.PickupDate != nil {
		d.PickupDate = *req.PickupDate
	}
	if req.PickupTime != nil {
		d.PickupTime = *req.PickupTime
	}
	if req.DeliveryDate != nil {
		d.DeliveryDate = *req.DeliveryDate
	}
	if req.DeliveryTime != nil {
		d.DeliveryTime = *req.DeliveryTime
	}
	if req.DeliveryAddress != nil {
		d.DeliveryAddress = *req.DeliveryAddress
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}
	if req.SpecialInstructions != nil {
		d.SpecialInstructions = *req.SpecialInstructions
	}

	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// Advance moves the draft to the next step when the current one is complete.
func (h *WizardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}
	if !d.Advance() {
		writeError(w, http.StatusConflict, "current step is incomplete")
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// Back moves the draft to the previous step.
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}
	if !d.Back() {
		writeError(w, http.StatusConflict, "already at the first step")
		return
	}
	writeJSON(w, http.StatusOK, toDraftResponse(d))
}

// Submit turns the draft into an order and discards it.
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	d := h.draftFromURL(w, r)
	if d == nil {
		return
	}

	req := service.CreateOrderRequest{
		IsAnonymous:         d.IsAnonymous,
		DeliveryType:        d.DeliveryType,
		PickupDate:          d.PickupDate,
		PickupTime:          d.PickupTime,
		DeliveryDate:        d.DeliveryDate,
		DeliveryTime:        d.DeliveryTime,
		DeliveryAddress:     d.DeliveryAddress,
		Notes:               d.Notes,
		SpecialInstructions: d.SpecialInstructions,
	}
	if d.Customer != nil {
		req.CustomerID = d.Customer.ID.String()
	}
	for _, item := range d.Items {
		req.Items = append(req.Items, service.OrderItemRequest{
			PieceID:  item.Piece.ID.String(),
			Quantity: item.Quantity,
		})
	}

	detail, err := h.svc.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.drafts.Delete(d.ID)
	resp := toOrderResponse(*detail, true)
	h.hub.Broadcast(ws.EventOrderCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}
